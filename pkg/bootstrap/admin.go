package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

// AdminStore is what SeedAdmin needs from the users collection.
type AdminStore interface {
	UserExists(ctx context.Context, email, username string) (bool, error)
	InsertUser(ctx context.Context, doc bson.M) (string, error)
}

// AdminAccount describes the administrator to seed.
type AdminAccount struct {
	Username string
	Email    string
	Password string
	Name     string
}

// SeedAdmin inserts an administrator with a bcrypt-hashed password unless a
// user with the same email or username exists. It reports whether a user was
// created.
func SeedAdmin(ctx context.Context, store AdminStore, acct AdminAccount, now func() time.Time) (bool, error) {
	if store == nil {
		return false, ErrNilTarget
	}
	if strings.TrimSpace(acct.Email) == "" || acct.Password == "" {
		return false, errors.New("bootstrap: admin email and password are required")
	}
	if acct.Username == "" {
		acct.Username = "admin"
	}
	if acct.Name == "" {
		acct.Name = "Administrador"
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	exists, err := store.UserExists(ctx, acct.Email, acct.Username)
	if err != nil {
		return false, fmt.Errorf("bootstrap: look up admin: %w", err)
	}
	if exists {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(acct.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("bootstrap: hash admin password: %w", err)
	}
	ts := now()
	if _, err := store.InsertUser(ctx, bson.M{
		"username":   acct.Username,
		"email":      acct.Email,
		"password":   hash,
		"nombre":     acct.Name,
		"telefono":   "",
		"direccion":  "",
		"role":       "admin",
		"active":     true,
		"created_at": ts,
		"updated_at": ts,
	}); err != nil {
		return false, fmt.Errorf("bootstrap: insert admin: %w", err)
	}
	return true, nil
}
