// Package devseed loads development fixtures for the sandbox backend.
package devseed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// UserSeed is one account to create before the sandbox starts serving.
type UserSeed struct {
	Username string `yaml:"username" json:"username"`
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"password"`
	Name     string `yaml:"nombre" json:"nombre"`
	Phone    string `yaml:"telefono" json:"telefono"`
	Address  string `yaml:"direccion" json:"direccion"`
	Role     string `yaml:"role" json:"role"`
}

// ProductSeed is one product, owned by the user with the given username.
type ProductSeed struct {
	Owner       string  `yaml:"owner" json:"owner"`
	Name        string  `yaml:"nombre" json:"nombre"`
	Description string  `yaml:"descripcion" json:"descripcion"`
	Price       float64 `yaml:"precio" json:"precio"`
	Size        string  `yaml:"talla" json:"talla"`
	Category    string  `yaml:"categoria" json:"categoria"`
	ImageURL    string  `yaml:"imagen_url" json:"imagen_url"`
}

// Seed is the root of a seed file.
type Seed struct {
	Users    []UserSeed    `yaml:"users" json:"users"`
	Products []ProductSeed `yaml:"products" json:"products"`
}

// Load reads a seed file. Files ending in .json are decoded as JSON, anything
// else as YAML.
func Load(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}
	seed, err := Parse(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("devseed: %s: %w", path, err)
	}
	return seed, nil
}

// Parse decodes seed data and checks that every product names a seeded owner.
func Parse(data []byte, isJSON bool) (*Seed, error) {
	var seed Seed
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&seed); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&seed); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}
	if err := seed.validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (s *Seed) validate() error {
	owners := make(map[string]bool, len(s.Users))
	for i, u := range s.Users {
		if u.Username == "" || u.Email == "" || u.Password == "" {
			return fmt.Errorf("user %d: username, email and password are required", i)
		}
		owners[u.Username] = true
	}
	for i, p := range s.Products {
		if p.Name == "" || p.Category == "" {
			return fmt.Errorf("product %d: nombre and categoria are required", i)
		}
		if !owners[p.Owner] {
			return fmt.Errorf("product %d: unknown owner %q", i, p.Owner)
		}
	}
	return nil
}
