package tradeco

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"
)

// encode renders the form as multipart/form-data and returns the body and
// its Content-Type, boundary included.
func (f ProductForm) encode() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := []struct{ name, value string }{
		{"nombre", f.Name},
		{"descripcion", f.Description},
		{"talla", f.Size},
		{"categoria", f.Category},
	}
	if f.Price != nil {
		fields = append(fields, struct{ name, value string }{"precio", strconv.FormatFloat(*f.Price, 'f', -1, 64)})
	}
	for _, fld := range fields {
		if fld.value == "" {
			continue
		}
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", fmt.Errorf("tradeco: write form field %s: %w", fld.name, err)
		}
	}

	if f.Image != nil && f.Image.Data != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="imagen"; filename="%s"`, quoteEscaper.Replace(f.Image.Filename)))
		ct := f.Image.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("tradeco: create image part: %w", err)
		}
		if _, err := io.Copy(part, f.Image.Data); err != nil {
			return nil, "", fmt.Errorf("tradeco: copy image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("tradeco: close form: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Price returns a pointer to p, for ProductForm.Price.
func Price(p float64) *float64 {
	return &p
}
