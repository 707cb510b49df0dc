package tradeco

import (
	"context"
	"encoding/json"
	"net/http"
)

// Login authenticates with email and password. On success the token and the
// returned user are stored in the session.
func (c *Client) Login(ctx context.Context, email, password string) Result[AuthData] {
	in, err := jsonCall(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return failure[AuthData](KindInvalidResponse, err.Error(), 0)
	}
	raw := c.send(ctx, "login", in)
	res := as[AuthData](c, "login", raw)
	if res.OK() {
		c.storeAuth("login", raw)
	}
	return res
}

// Register creates an account. On success the backend logs the new user in
// and the session is stored exactly as for Login.
func (c *Client) Register(ctx context.Context, req RegisterRequest) Result[AuthData] {
	in, err := jsonCall(http.MethodPost, "/auth/register", req)
	if err != nil {
		return failure[AuthData](KindInvalidResponse, err.Error(), 0)
	}
	raw := c.send(ctx, "register", in)
	res := as[AuthData](c, "register", raw)
	if res.OK() {
		c.storeAuth("register", raw)
	}
	return res
}

// storeAuth persists {token, user} from an auth response that already decoded
// into AuthData. The user is cached as the exact JSON the backend sent.
func (c *Client) storeAuth(op string, raw Result[json.RawMessage]) {
	if !raw.Success || len(raw.Data) == 0 {
		return
	}
	var data struct {
		Token string          `json:"token"`
		User  json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(raw.Data, &data); err != nil || data.Token == "" {
		c.logger.Warn().Str("op", op).Msg("auth response without token; session not saved")
		return
	}
	if err := c.session.SaveSession(data.Token, data.User); err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("save session")
	}
}
