// Package sandbox is an in-memory stand-in for the TradeCo REST backend. It
// serves the same routes and envelopes so the façade can be developed and
// tested without the production server or a database.
package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tradeco/tradeco_sdk_go/internal/apienvelope"
	"github.com/tradeco/tradeco_sdk_go/internal/devseed"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// MaxUploadBytes bounds multipart request bodies.
const MaxUploadBytes = 5 << 20

// Categories is the fixed category list.
var Categories = []string{"Remeras", "Abrigos", "Pantalones", "Vestidos", "Calzado", "Accesorios"}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HS256 signing key.
func WithSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.secret = []byte(secret)
		}
	}
}

// WithClock overrides the clock used for timestamps and token expiry.
func WithClock(fn func() time.Time) Option {
	return func(s *Server) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRegistry exposes collectors from reg on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithFaults injects latency and random failures before every API request.
func WithFaults(f Faults) Option {
	return func(s *Server) { s.faults = f }
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.cost = cost }
}

// Server is the sandbox backend.
type Server struct {
	secret   []byte
	now      func() time.Time
	logger   zerolog.Logger
	registry *prometheus.Registry
	faults   Faults
	cost     int

	store   *store
	handler http.Handler
}

// New builds a Server. Routes are mounted under /api, with /metrics at the
// root.
func New(opts ...Option) *Server {
	s := &Server{
		secret: []byte("change-this-secret-key"),
		now:    func() time.Time { return time.Now().UTC() },
		logger: zerolog.Nop(),
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = newStore(s.now, s.cost)
	s.handler = s.routes()
	return s
}

// Seed loads users and products.
func (s *Server) Seed(seed *devseed.Seed) error {
	if err := s.store.seed(seed); err != nil {
		return fmt.Errorf("sandbox: seed: %w", err)
	}
	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Get(UploadPrefix+"{name}", s.handleImage)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.faults.middleware)
		r.Get("/health", s.handleHealth)

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Get("/products/", s.handleListProducts)
		r.Get("/products/categories", s.handleCategories)
		r.Get("/products/user/{userID}", s.handleUserProducts)
		r.Get("/products/{productID}", s.handleGetProduct)

		r.Get("/users/{userID}", s.handlePublicUser)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/products/", s.handleCreateProduct)
			r.Put("/products/{productID}", s.handleUpdateProduct)
			r.Delete("/products/{productID}", s.handleDeleteProduct)
			r.Get("/users/profile", s.handleGetProfile)
			r.Put("/users/profile", s.handleUpdateProfile)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/users/", s.handleListUsers)
				r.Get("/dashboard/stats", s.handleStats)
				r.Get("/dashboard/products-by-category", s.handleProductsByCategory)
				r.Get("/dashboard/recent-activity", s.handleRecentActivity)
				r.Get("/dashboard/users-growth", s.handleUsersGrowth)
				r.Get("/dashboard/top-sellers", s.handleTopSellers)
				r.Get("/dashboard/price-stats", s.handlePriceStats)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "Endpoint no encontrado", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "Método no permitido", nil)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "API TRADEco funcionando correctamente",
		"version": Version,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"nombre"`
		Phone    string `json:"telefono"`
		Address  string `json:"direccion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Cuerpo JSON inválido", nil)
		return
	}
	required := []struct{ name, value string }{
		{"username", req.Username},
		{"email", req.Email},
		{"password", req.Password},
		{"nombre", req.Name},
	}
	for _, f := range required {
		if f.value == "" {
			writeFailure(w, http.StatusBadRequest, fmt.Sprintf("El campo %s es obligatorio", f.name), nil)
			return
		}
	}
	if !validEmail(req.Email) {
		writeFailure(w, http.StatusBadRequest, "Email inválido", nil)
		return
	}
	if msg := validUsername(req.Username); msg != "" {
		writeFailure(w, http.StatusBadRequest, msg, nil)
		return
	}
	if msg := validPassword(req.Password); msg != "" {
		writeFailure(w, http.StatusBadRequest, msg, nil)
		return
	}
	if !validPhone(req.Phone) {
		writeFailure(w, http.StatusBadRequest, "Número de teléfono inválido", nil)
		return
	}

	u, err := s.store.createUser(user{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Address:  req.Address,
	}, req.Password)
	switch {
	case errors.Is(err, errDuplicateEmail):
		writeFailure(w, http.StatusBadRequest, "El email ya está registrado", nil)
		return
	case errors.Is(err, errDuplicateUsername):
		writeFailure(w, http.StatusBadRequest, "El nombre de usuario ya está en uso", nil)
		return
	case err != nil:
		s.internalError(w, "Error al registrar usuario", err)
		return
	}
	s.writeAuth(w, http.StatusCreated, "Usuario registrado exitosamente", u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Cuerpo JSON inválido", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeFailure(w, http.StatusBadRequest, "Email y contraseña son obligatorios", nil)
		return
	}
	u, ok := s.store.verify(req.Email, req.Password)
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "Email o contraseña incorrectos", nil)
		return
	}
	if !u.Active {
		writeFailure(w, http.StatusUnauthorized, "Usuario inactivo", nil)
		return
	}
	s.writeAuth(w, http.StatusOK, "Login exitoso", u)
}

func (s *Server) writeAuth(w http.ResponseWriter, status int, message string, u *user) {
	token, err := s.issueToken(u)
	if err != nil {
		s.internalError(w, "Error al generar token", err)
		return
	}
	writeSuccess(w, status, message, map[string]any{
		"token": token,
		"user":  userView(u),
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, limit, ok := pageParams(w, r)
	if !ok {
		return
	}
	q := productQuery{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("categoria"),
	}
	items, total := s.store.listProducts(q, offset(page, limit), limit)
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"products":   productViews(items),
		"pagination": pagination(page, limit, total),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", Categories)
}

func (s *Server) handleUserProducts(w http.ResponseWriter, r *http.Request) {
	page, limit, ok := pageParams(w, r)
	if !ok {
		return
	}
	q := productQuery{UserID: chi.URLParam(r, "userID"), AnyStatus: true}
	items, _ := s.store.listProducts(q, offset(page, limit), limit)
	writeSuccess(w, http.StatusOK, "", productViews(items))
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.store.productByID(chi.URLParam(r, "productID"))
	if !ok {
		writeFailure(w, http.StatusNotFound, "Producto no encontrado", nil)
		return
	}
	writeSuccess(w, http.StatusOK, "", productView(p))
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseProductForm(w, r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Formulario inválido", []string{err.Error()})
		return
	}
	if errs := validateProductForm(form.fields, false); len(errs) > 0 {
		writeFailure(w, http.StatusBadRequest, "Datos inválidos", errs)
		return
	}

	who := currentPrincipal(r)
	owner, ok := s.store.userByID(who.UserID)
	username := "Anónimo"
	if ok {
		username = owner.Username
	}
	p := product{UserID: who.UserID, Username: username, ImageURL: form.imageURL}
	form.apply(&p)
	s.saveImage(form)
	created := s.store.createProduct(p)
	writeSuccess(w, http.StatusCreated, "Producto publicado exitosamente", productView(created))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	existing, ok := s.store.productByID(id)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Producto no encontrado", nil)
		return
	}
	who := currentPrincipal(r)
	if existing.UserID != who.UserID && who.Role != RoleAdmin {
		writeFailure(w, http.StatusForbidden, "No tienes permiso para editar este producto", nil)
		return
	}
	form, err := s.parseProductForm(w, r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Formulario inválido", []string{err.Error()})
		return
	}
	if errs := validateProductForm(form.fields, true); len(errs) > 0 {
		writeFailure(w, http.StatusBadRequest, "Datos inválidos", errs)
		return
	}
	s.saveImage(form)
	var replaced string
	updated, err := s.store.updateProduct(id, func(p *product) {
		form.apply(p)
		if form.imageURL != "" {
			replaced = p.ImageURL
			p.ImageURL = form.imageURL
		}
	})
	if err != nil {
		if form.image != nil {
			s.store.dropImage(imageName(form.imageURL))
		}
		writeFailure(w, http.StatusNotFound, "Producto no encontrado", nil)
		return
	}
	if replaced != "" && replaced != form.imageURL {
		s.store.dropImage(imageName(replaced))
	}
	writeSuccess(w, http.StatusOK, "Producto actualizado exitosamente", productView(updated))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	existing, ok := s.store.productByID(id)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Producto no encontrado", nil)
		return
	}
	who := currentPrincipal(r)
	if existing.UserID != who.UserID && who.Role != RoleAdmin {
		writeFailure(w, http.StatusForbidden, "No tienes permiso para eliminar este producto", nil)
		return
	}
	if !s.store.deleteProduct(id) {
		writeFailure(w, http.StatusBadRequest, "No se pudo eliminar el producto", nil)
		return
	}
	writeSuccess(w, http.StatusOK, "Producto eliminado exitosamente", nil)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := s.store.userByID(currentPrincipal(r).UserID)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Usuario no encontrado", nil)
		return
	}
	writeSuccess(w, http.StatusOK, "", userView(u))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    *string `json:"nombre"`
		Phone   *string `json:"telefono"`
		Address *string `json:"direccion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Cuerpo JSON inválido", nil)
		return
	}
	if req.Phone != nil && !validPhone(*req.Phone) {
		writeFailure(w, http.StatusBadRequest, "Número de teléfono inválido", nil)
		return
	}
	u, err := s.store.updateProfile(currentPrincipal(r).UserID, req.Name, req.Phone, req.Address)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "No se pudo actualizar el perfil", nil)
		return
	}
	writeSuccess(w, http.StatusOK, "Perfil actualizado exitosamente", userView(u))
}

func (s *Server) handlePublicUser(w http.ResponseWriter, r *http.Request) {
	u, ok := s.store.userByID(chi.URLParam(r, "userID"))
	if !ok {
		writeFailure(w, http.StatusNotFound, "Usuario no encontrado", nil)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"nombre":     u.Name,
		"created_at": isoTime(u.CreatedAt),
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, ok := pageParams(w, r)
	if !ok {
		return
	}
	users, total := s.store.listUsers(offset(page, limit), limit)
	views := make([]map[string]any, 0, len(users))
	for i := range users {
		views = append(views, userView(&users[i]))
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"users":      views,
		"pagination": pagination(page, limit, total),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.store.stats()
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"users": map[string]int{
			"total":            st.users,
			"active":           st.activeUsers,
			"new_last_30_days": st.newUsers,
		},
		"products": map[string]int{
			"total":            st.products,
			"available":        st.available,
			"sold":             st.sold,
			"new_last_30_days": st.newProducts,
		},
	})
}

func (s *Server) handleProductsByCategory(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", s.store.countByCategory())
}

// dashboardRows bounds the recent-activity and top-sellers reports.
const dashboardRows = 10

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	users := s.store.recentUsers(dashboardRows)
	userRows := make([]map[string]any, 0, len(users))
	for _, u := range users {
		userRows = append(userRows, map[string]any{
			"id":         u.ID,
			"username":   u.Username,
			"email":      u.Email,
			"created_at": isoTime(u.CreatedAt),
		})
	}
	products, _ := s.store.listProducts(productQuery{AnyStatus: true}, 0, dashboardRows)
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"recent_users":    userRows,
		"recent_products": productViews(products),
	})
}

func (s *Server) handleUsersGrowth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", s.store.usersGrowth(12))
}

func (s *Server) handleTopSellers(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", s.store.topSellers(dashboardRows))
}

func (s *Server) handlePriceStats(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", s.store.priceStats())
}

func (s *Server) internalError(w http.ResponseWriter, message string, err error) {
	s.logger.Error().Err(err).Msg(message)
	writeFailure(w, http.StatusInternalServerError, message+": "+err.Error(), nil)
}

// pageParams reads page (default 1) and limit (default 20). Non-numeric or
// non-positive values are rejected with 400.
func pageParams(w http.ResponseWriter, r *http.Request) (page, limit int, ok bool) {
	page, limit = 1, 20
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &page}, {"limit", &limit}} {
		raw := strings.TrimSpace(r.URL.Query().Get(p.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeFailure(w, http.StatusBadRequest, fmt.Sprintf("Parámetro %s inválido", p.name), nil)
			return 0, 0, false
		}
		*p.dst = n
	}
	return page, limit, true
}

// offset is the number of records before page. Pages past the addressable
// range saturate instead of wrapping negative.
func offset(page, limit int) int {
	if page <= 1 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func pagination(page, limit, total int) map[string]int {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return map[string]int{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": pages,
	}
}

func userView(u *user) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"nombre":     u.Name,
		"telefono":   u.Phone,
		"direccion":  u.Address,
		"role":       u.Role,
		"created_at": isoTime(u.CreatedAt),
	}
}

func productView(p *product) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"nombre":      p.Name,
		"descripcion": p.Description,
		"precio":      p.Price,
		"talla":       p.Size,
		"categoria":   p.Category,
		"imagen_url":  p.ImageURL,
		"user_id":     p.UserID,
		"username":    p.Username,
		"estado":      p.Status,
		"created_at":  isoTime(p.CreatedAt),
	}
}

func productViews(items []product) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		out = append(out, productView(&items[i]))
	}
	return out
}

func isoTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format("2006-01-02T15:04:05.000000")
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	body, err := apienvelope.Encode(true, message, data)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	writeRaw(w, status, body)
}

func writeFailure(w http.ResponseWriter, status int, message string, errs []string) {
	body, _ := json.Marshal(apienvelope.Envelope{Success: false, Message: message, Errors: errs})
	writeRaw(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
