package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Storage keys, shared with the browser client.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// HomeView is the view a Navigator is sent to after Logout.
const HomeView = "index.html"

// ErrNotAuthenticated is returned by RequireAuth when no token is stored.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Navigator receives the post-logout navigation request. UI layers use it to
// reset to the home view; headless callers can ignore it.
type Navigator interface {
	Navigate(view string)
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(view string)

// Navigate calls f(view).
func (f NavigatorFunc) Navigate(view string) { f(view) }

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for storage failures that are otherwise
// swallowed by the read helpers.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithNavigator installs the callback invoked at the end of Logout.
func WithNavigator(n Navigator) Option {
	return func(s *Store) {
		if n != nil {
			s.navigator = n
		}
	}
}

// Store holds the session token and the cached user profile.
type Store struct {
	storage   Storage
	logger    zerolog.Logger
	navigator Navigator
}

// New returns a Store backed by storage, or by a fresh MemoryStorage when
// storage is nil.
func New(storage Storage, opts ...Option) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Store{
		storage:   storage,
		logger:    zerolog.Nop(),
		navigator: NavigatorFunc(func(string) {}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the stored token. Storage failures read as "no token".
func (s *Store) Token() (string, bool) {
	v, ok, err := s.storage.Get(KeyToken)
	if err != nil {
		s.logger.Error().Err(err).Str("key", KeyToken).Msg("read session token")
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// SaveToken stores the raw token.
func (s *Store) SaveToken(token string) error {
	if err := s.storage.Set(KeyToken, token); err != nil {
		return fmt.Errorf("session: save token: %w", err)
	}
	return nil
}

// User decodes the cached user into out. It reports false when no user is
// cached or the cached text cannot be decoded.
func (s *Store) User(out any) bool {
	raw, ok := s.RawUser()
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn().Err(err).Msg("decode cached session user")
		return false
	}
	return true
}

// RawUser returns the cached user JSON exactly as stored.
func (s *Store) RawUser() (json.RawMessage, bool) {
	v, ok, err := s.storage.Get(KeyUser)
	if err != nil {
		s.logger.Error().Err(err).Str("key", KeyUser).Msg("read session user")
		return nil, false
	}
	v = strings.TrimSpace(v)
	if !ok || v == "" || v == "null" {
		return nil, false
	}
	return json.RawMessage(v), true
}

// SaveUser serialises user to JSON and stores it.
func (s *Store) SaveUser(user any) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	if err := s.storage.Set(KeyUser, string(data)); err != nil {
		return fmt.Errorf("session: save user: %w", err)
	}
	return nil
}

// SaveSession stores the token and then the user. The two writes are not
// atomic; a failure after the first leaves the token in place.
func (s *Store) SaveSession(token string, user any) error {
	if err := s.SaveToken(token); err != nil {
		return err
	}
	return s.SaveUser(user)
}

// IsAuthenticated reports whether a token is stored.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

// RequireAuth returns ErrNotAuthenticated when no token is stored.
func (s *Store) RequireAuth() error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// Logout removes the token and the user, then navigates to HomeView. The
// navigation happens even if a removal failed.
func (s *Store) Logout() error {
	errToken := s.storage.Remove(KeyToken)
	errUser := s.storage.Remove(KeyUser)
	s.navigator.Navigate(HomeView)

	if err := errors.Join(errToken, errUser); err != nil {
		return fmt.Errorf("session: logout: %w", err)
	}
	return nil
}
