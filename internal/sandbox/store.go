package sandbox

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tradeco/tradeco_sdk_go/internal/devseed"
)

// Product states.
const (
	StatusAvailable = "disponible"
	StatusSold      = "vendido"
	StatusReserved  = "reservado"
)

// Roles.
const (
	RoleUser  = "usuario"
	RoleAdmin = "admin"
)

var (
	errDuplicateEmail    = errors.New("email already registered")
	errDuplicateUsername = errors.New("username already taken")
	errNotFound          = errors.New("not found")
)

type user struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	Name         string
	Phone        string
	Address      string
	Role         string
	Active       bool
	CreatedAt    time.Time
	seq          uint64
}

type product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Size        string
	Category    string
	ImageURL    string
	UserID      string
	Username    string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	seq         uint64
}

// store is the in-memory replacement for the users and products collections.
type store struct {
	mu       sync.RWMutex
	users    map[string]*user
	products map[string]*product
	images   map[string]storedImage
	now      func() time.Time
	cost     int

	// seq orders records created within the same clock tick.
	seq uint64
}

func newStore(now func() time.Time, cost int) *store {
	return &store{
		users:    make(map[string]*user),
		products: make(map[string]*product),
		images:   make(map[string]storedImage),
		now:      now,
		cost:     cost,
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *store) createUser(u user, password string) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, errDuplicateEmail
		}
		if existing.Username == u.Username {
			return nil, errDuplicateUsername
		}
	}
	s.seq++
	u.seq = s.seq
	u.ID = newID()
	u.PasswordHash = hash
	u.Active = true
	u.CreatedAt = s.now()
	if u.Role == "" {
		u.Role = RoleUser
	}
	stored := u
	s.users[u.ID] = &stored
	return &stored, nil
}

// verify returns the user when email and password match.
func (s *store) verify(email, password string) (*user, bool) {
	s.mu.RLock()
	var found *user
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			found = u
			break
		}
	}
	s.mu.RUnlock()
	if found == nil {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword(found.PasswordHash, []byte(password)) != nil {
		return nil, false
	}
	cp := *found
	return &cp, true
}

func (s *store) userByID(id string) (*user, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	cp := *u
	return &cp, true
}

func (s *store) userByUsername(username string) (*user, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, true
		}
	}
	return nil, false
}

// updateProfile applies the non-nil fields and returns the updated user.
func (s *store) updateProfile(id string, name, phone, address *string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errNotFound
	}
	if name != nil {
		u.Name = *name
	}
	if phone != nil {
		u.Phone = *phone
	}
	if address != nil {
		u.Address = *address
	}
	cp := *u
	return &cp, nil
}

func (s *store) listUsers(skip, limit int) ([]user, int) {
	s.mu.RLock()
	all := make([]user, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, *u)
	}
	s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].seq < all[j].seq
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return window(all, skip, limit), len(all)
}

func (s *store) createProduct(p product) *product {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.seq++
	p.seq = s.seq
	p.ID = newID()
	p.Status = StatusAvailable
	p.CreatedAt = now
	p.UpdatedAt = now
	stored := p
	s.products[p.ID] = &stored
	cp := stored
	return &cp
}

func (s *store) productByID(id string) (*product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (s *store) updateProduct(id string, apply func(*product)) (*product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, errNotFound
	}
	apply(p)
	p.UpdatedAt = s.now()
	cp := *p
	return &cp, nil
}

func (s *store) putImage(name, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[name] = storedImage{contentType: contentType, data: data, storedAt: s.now()}
}

func (s *store) dropImage(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.images, name)
}

func (s *store) image(name string) (storedImage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[name]
	return img, ok
}

func (s *store) deleteProduct(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return false
	}
	delete(s.images, imageName(p.ImageURL))
	delete(s.products, id)
	return true
}

type productQuery struct {
	Search   string
	Category string
	UserID   string

	// AnyStatus includes sold and reserved products.
	AnyStatus bool
}

func (q productQuery) match(p *product) bool {
	if !q.AnyStatus && p.Status != StatusAvailable {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.UserID != "" && p.UserID != q.UserID {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	return true
}

// listProducts returns a newest-first window of matching products and the
// total number of matches.
func (s *store) listProducts(q productQuery, skip, limit int) ([]product, int) {
	s.mu.RLock()
	matched := make([]product, 0)
	for _, p := range s.products {
		if q.match(p) {
			matched = append(matched, *p)
		}
	}
	s.mu.RUnlock()
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].seq > matched[j].seq
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return window(matched, skip, limit), len(matched)
}

type stats struct {
	users       int
	activeUsers int
	newUsers    int
	products    int
	available   int
	sold        int
	newProducts int
}

func (s *store) stats() stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().AddDate(0, 0, -30)
	var st stats
	for _, u := range s.users {
		st.users++
		if u.Active {
			st.activeUsers++
		}
		if !u.CreatedAt.Before(cutoff) {
			st.newUsers++
		}
	}
	for _, p := range s.products {
		st.products++
		switch p.Status {
		case StatusAvailable:
			st.available++
		case StatusSold:
			st.sold++
		}
		if !p.CreatedAt.Before(cutoff) {
			st.newProducts++
		}
	}
	return st
}

type categoryCount struct {
	Category  string `json:"categoria"`
	Total     int    `json:"total"`
	Available int    `json:"disponibles"`
}

func (s *store) countByCategory() []categoryCount {
	s.mu.RLock()
	byCat := make(map[string]*categoryCount)
	for _, p := range s.products {
		c, ok := byCat[p.Category]
		if !ok {
			c = &categoryCount{Category: p.Category}
			byCat[p.Category] = c
		}
		c.Total++
		if p.Status == StatusAvailable {
			c.Available++
		}
	}
	s.mu.RUnlock()
	out := make([]categoryCount, 0, len(byCat))
	for _, c := range byCat {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total == out[j].Total {
			return out[i].Category < out[j].Category
		}
		return out[i].Total > out[j].Total
	})
	return out
}

// recentUsers returns the n newest users.
func (s *store) recentUsers(n int) []user {
	s.mu.RLock()
	all := make([]user, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, *u)
	}
	s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].seq > all[j].seq
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return window(all, 0, n)
}

var monthNames = [...]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

type growthPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// usersGrowth counts sign-ups per calendar month, oldest first, keeping the
// first maxMonths months.
func (s *store) usersGrowth(maxMonths int) []growthPoint {
	s.mu.RLock()
	byMonth := make(map[int]int)
	for _, u := range s.users {
		t := u.CreatedAt.UTC()
		byMonth[t.Year()*12+int(t.Month())-1]++
	}
	s.mu.RUnlock()
	keys := make([]int, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	keys = window(keys, 0, maxMonths)
	out := make([]growthPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, growthPoint{
			Month: fmt.Sprintf("%s %d", monthNames[k%12], k/12),
			Count: byMonth[k],
		})
	}
	return out
}

type topSeller struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	TotalProducts int    `json:"total_products"`
	Available     int    `json:"available"`

	first uint64
}

// topSellers ranks users by number of products, keeping the first n.
func (s *store) topSellers(n int) []topSeller {
	s.mu.RLock()
	byUser := make(map[string]*topSeller)
	for _, p := range s.products {
		ts, ok := byUser[p.UserID]
		if !ok {
			ts = &topSeller{UserID: p.UserID, Username: p.Username, first: p.seq}
			byUser[p.UserID] = ts
		}
		if p.seq < ts.first {
			ts.Username, ts.first = p.Username, p.seq
		}
		ts.TotalProducts++
		if p.Status == StatusAvailable {
			ts.Available++
		}
	}
	s.mu.RUnlock()
	out := make([]topSeller, 0, len(byUser))
	for _, ts := range byUser {
		out = append(out, *ts)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalProducts == out[j].TotalProducts {
			return out[i].Username < out[j].Username
		}
		return out[i].TotalProducts > out[j].TotalProducts
	})
	return window(out, 0, n)
}

type priceStats struct {
	Average float64 `json:"average"`
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
}

// priceStats averages prices to two decimals. No products yields zeros.
func (s *store) priceStats() priceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st priceStats
	if len(s.products) == 0 {
		return st
	}
	var sum float64
	first := true
	for _, p := range s.products {
		sum += p.Price
		if first || p.Price < st.Minimum {
			st.Minimum = p.Price
		}
		if first || p.Price > st.Maximum {
			st.Maximum = p.Price
		}
		first = false
	}
	st.Average = math.Round(sum/float64(len(s.products))*100) / 100
	return st
}

// seed creates the users and products of a devseed file.
func (s *store) seed(seed *devseed.Seed) error {
	if seed == nil {
		return nil
	}
	for _, su := range seed.Users {
		if _, err := s.createUser(user{
			Username: su.Username,
			Email:    su.Email,
			Name:     su.Name,
			Phone:    su.Phone,
			Address:  su.Address,
			Role:     su.Role,
		}, su.Password); err != nil {
			return err
		}
	}
	for _, sp := range seed.Products {
		owner, ok := s.userByUsername(sp.Owner)
		if !ok {
			return errNotFound
		}
		s.createProduct(product{
			Name:        sp.Name,
			Description: sp.Description,
			Price:       sp.Price,
			Size:        sp.Size,
			Category:    sp.Category,
			ImageURL:    sp.ImageURL,
			UserID:      owner.ID,
			Username:    owner.Username,
		})
	}
	return nil
}

func window[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && limit < end-skip {
		end = skip + limit
	}
	return items[skip:end]
}
