package sandbox

import (
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	phonePattern    = regexp.MustCompile(`^(\+54|0)?[1-9]\d{9,10}$`)
)

var allowedImageExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validUsername returns "" or the rejection message.
func validUsername(username string) string {
	if n := len(username); n < 3 || n > 20 {
		return "El nombre de usuario debe tener entre 3 y 20 caracteres"
	}
	if !usernamePattern.MatchString(username) {
		return "El nombre de usuario solo puede contener letras, números y guiones bajos"
	}
	return ""
}

// validPassword returns "" or the rejection message.
func validPassword(password string) string {
	if len(password) < 8 {
		return "La contraseña debe tener al menos 8 caracteres"
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !upper:
		return "La contraseña debe tener al menos una letra mayúscula"
	case !lower:
		return "La contraseña debe tener al menos una letra minúscula"
	case !digit:
		return "La contraseña debe tener al menos un número"
	}
	return ""
}

// validPhone accepts empty input; phone numbers are optional.
func validPhone(phone string) bool {
	if phone == "" {
		return true
	}
	phone = strings.NewReplacer(" ", "", "-", "").Replace(phone)
	return phonePattern.MatchString(phone)
}

// validateProductForm checks submitted product fields. On create every
// required field must be present; on update only submitted fields are checked.
func validateProductForm(fields map[string]string, partial bool) []string {
	var errs []string
	if name, ok := fields["nombre"]; (ok || !partial) && strings.TrimSpace(name) == "" {
		errs = append(errs, "El nombre del producto es obligatorio")
	}
	if cat, ok := fields["categoria"]; (ok || !partial) && cat == "" {
		errs = append(errs, "La categoría es obligatoria")
	}
	if raw, ok := fields["precio"]; ok {
		price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		switch {
		case err != nil, math.IsNaN(price), math.IsInf(price, 0):
			errs = append(errs, "El precio debe ser un número válido")
		case price < 0:
			errs = append(errs, "El precio no puede ser negativo")
		}
	}
	return errs
}

func allowedImage(filename string) bool {
	return allowedImageExt[strings.ToLower(filepath.Ext(filename))]
}

// sanitizeFilename keeps ASCII letters, digits, dots, dashes and underscores.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), "._")
}
