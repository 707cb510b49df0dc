package sandbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenTTL is how long issued tokens stay valid.
const TokenTTL = 24 * time.Hour

var errExpiredToken = errors.New("token expired")

// claims mirrors the production token payload: user_id, role and exp.
type claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type principal struct {
	UserID string
	Role   string
}

type principalKey struct{}

func (s *Server) issueToken(u *user) (string, error) {
	c := &claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (*claims, error) {
	c := &claims{}
	// Expiry is checked against the server clock below, not wall time.
	parser := jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	token, err := parser.ParseWithClaims(raw, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || c.UserID == "" {
		return nil, errors.New("invalid token")
	}
	if !c.VerifyExpiresAt(s.now(), true) {
		return nil, errExpiredToken
	}
	return c, nil
}

// requireToken rejects requests without a valid bearer token.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeFailure(w, http.StatusUnauthorized, "Token no proporcionado", nil)
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[1] == "" {
			writeFailure(w, http.StatusUnauthorized, "Formato de token inválido", nil)
			return
		}
		c, err := s.parseToken(parts[1])
		if errors.Is(err, errExpiredToken) {
			writeFailure(w, http.StatusUnauthorized, "Token expirado", nil)
			return
		}
		if err != nil {
			writeFailure(w, http.StatusUnauthorized, "Token inválido", nil)
			return
		}
		role := c.Role
		if role == "" {
			role = RoleUser
		}
		ctx := context.WithValue(r.Context(), principalKey{}, principal{UserID: c.UserID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin must run after requireToken.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentPrincipal(r).Role != RoleAdmin {
			writeFailure(w, http.StatusForbidden, "Acceso denegado. Se requiere rol de administrador", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentPrincipal(r *http.Request) principal {
	p, _ := r.Context().Value(principalKey{}).(principal)
	return p
}
