package tradeco

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DefaultPageLimit is the page size GetProducts asks for when none is given.
const DefaultPageLimit = 20

// Categories is the fixed category list served by /products/categories.
var Categories = []string{"Remeras", "Abrigos", "Pantalones", "Vestidos", "Calzado", "Accesorios"}

// ID is an opaque backend identifier. The API emits strings (Mongo ObjectIDs)
// but numeric ids are accepted as well.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("tradeco: invalid id %s", b)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id text.
func (id ID) String() string { return string(id) }

// User is the account summary returned by auth and profile endpoints and
// cached in the session.
type User struct {
	ID        ID     `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"nombre,omitempty"`
	Phone     string `json:"telefono,omitempty"`
	Address   string `json:"direccion,omitempty"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// PublicUser is the subset of a user visible to anyone.
type PublicUser struct {
	ID        ID     `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"nombre,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// AuthData is the data member of a successful login or register.
type AuthData struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"nombre"`
	Phone    string `json:"telefono,omitempty"`
	Address  string `json:"direccion,omitempty"`
}

// ProfileUpdate is the body of PUT /users/profile. Nil fields are left
// unchanged by the backend.
type ProfileUpdate struct {
	Name    *string `json:"nombre,omitempty"`
	Phone   *string `json:"telefono,omitempty"`
	Address *string `json:"direccion,omitempty"`
}

// Product is a marketplace listing.
type Product struct {
	ID          ID      `json:"id"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion,omitempty"`
	Price       float64 `json:"precio"`
	Size        string  `json:"talla,omitempty"`
	Category    string  `json:"categoria"`
	ImageURL    string  `json:"imagen_url,omitempty"`
	UserID      ID      `json:"user_id"`
	Username    string  `json:"username,omitempty"`
	Status      string  `json:"estado,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// Pagination describes the page returned by GetProducts.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ProductPage is the data member of the product listing endpoint.
type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// ProductFilter narrows GetProducts. Empty fields are not sent.
type ProductFilter struct {
	Search   string
	Category string
}

// ProductForm is the multipart payload for creating or updating a product.
// Empty text fields and a nil Price are omitted, which makes updates partial.
type ProductForm struct {
	Name        string
	Description string
	Price       *float64
	Size        string
	Category    string
	Image       *Image
}

// Image is an optional file attached to a ProductForm.
type Image struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// Empty is the data type of responses that carry no data member.
type Empty struct{}

// UserPage is the data member of the admin user listing.
type UserPage struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	Users struct {
		Total         int `json:"total"`
		Active        int `json:"active"`
		NewLast30Days int `json:"new_last_30_days"`
	} `json:"users"`
	Products struct {
		Total         int `json:"total"`
		Available     int `json:"available"`
		Sold          int `json:"sold"`
		NewLast30Days int `json:"new_last_30_days"`
	} `json:"products"`
}

// CategoryCount is one row of the products-by-category report.
type CategoryCount struct {
	Category  string `json:"categoria"`
	Total     int    `json:"total"`
	Available int    `json:"disponibles"`
}

// RecentUser is a user row of the recent-activity report.
type RecentUser struct {
	ID        ID     `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// RecentActivity lists the newest accounts and products, ten of each.
type RecentActivity struct {
	RecentUsers    []RecentUser `json:"recent_users"`
	RecentProducts []Product    `json:"recent_products"`
}

// GrowthPoint is the number of accounts created in one month. Month is
// labelled like "Mar 2025".
type GrowthPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// TopSeller is one row of the top-sellers report.
type TopSeller struct {
	UserID        ID     `json:"user_id"`
	Username      string `json:"username"`
	TotalProducts int    `json:"total_products"`
	Available     int    `json:"available"`
}

// PriceStats summarises product prices. All fields are zero when there are
// no products.
type PriceStats struct {
	Average float64 `json:"average"`
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
}
