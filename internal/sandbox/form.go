package sandbox

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// UploadPrefix is the public path stored images are served under.
const UploadPrefix = "/uploads/products/"

var productFields = []string{"nombre", "descripcion", "precio", "talla", "categoria"}

type productForm struct {
	fields map[string]string

	// image is the accepted upload, not yet stored.
	image    *storedImage
	imageURL string
}

// apply copies the submitted fields onto p. Absent fields are left alone.
func (f *productForm) apply(p *product) {
	for name, v := range f.fields {
		switch name {
		case "nombre":
			p.Name = strings.TrimSpace(v)
		case "descripcion":
			p.Description = v
		case "precio":
			if price, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				p.Price = price
			}
		case "talla":
			p.Size = v
		case "categoria":
			p.Category = v
		}
	}
}

// parseProductForm reads a multipart (or urlencoded) product form. An
// attached "imagen" with an allowed extension is held on the form together
// with the public URL it will get; saveImage stores it.
func (s *Server) parseProductForm(w http.ResponseWriter, r *http.Request) (*productForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	ct := r.Header.Get("Content-Type")
	var err error
	if strings.HasPrefix(ct, "multipart/") {
		err = r.ParseMultipartForm(MaxUploadBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	form := &productForm{fields: make(map[string]string)}
	for _, name := range productFields {
		if vals, ok := r.PostForm[name]; ok && len(vals) > 0 {
			form.fields[name] = vals[0]
		}
	}

	if r.MultipartForm == nil {
		return form, nil
	}
	file, header, err := r.FormFile("imagen")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read imagen: %w", err)
	}
	defer file.Close()
	if header.Filename == "" || !allowedImage(header.Filename) {
		return form, nil
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read imagen: %w", err)
	}
	name := fmt.Sprintf("%s_%s", s.now().Format("20060102_150405"), sanitizeFilename(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	form.image = &storedImage{contentType: contentType, data: data}
	form.imageURL = UploadPrefix + name
	return form, nil
}

// saveImage stores the form's pending upload, if any.
func (s *Server) saveImage(f *productForm) {
	if f.image == nil {
		return
	}
	s.store.putImage(imageName(f.imageURL), f.image.contentType, f.image.data)
}

func imageName(url string) string {
	return strings.TrimPrefix(url, UploadPrefix)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	img, ok := s.store.image(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", img.contentType)
	w.Header().Set("Last-Modified", img.storedAt.UTC().Format(http.TimeFormat))
	_, _ = w.Write(img.data)
}

type storedImage struct {
	contentType string
	data        []byte
	storedAt    time.Time
}
