package tradeco

import (
	"context"
	"net/http"
)

// GetMyProfile fetches the logged-in user's full profile.
func (c *Client) GetMyProfile(ctx context.Context) Result[User] {
	raw := c.send(ctx, "get_my_profile", call{
		method:      http.MethodGet,
		path:        "/users/profile",
		route:       "/users/profile",
		authMessage: MsgMustLogIn,
	})
	return as[User](c, "get_my_profile", raw)
}

// UpdateMyProfile changes the logged-in user's profile. On success the cached
// session user is replaced with the returned data.
func (c *Client) UpdateMyProfile(ctx context.Context, update ProfileUpdate) Result[User] {
	if !c.session.IsAuthenticated() {
		return failure[User](KindUnauthenticated, MsgMustLogIn, 0)
	}
	in, err := jsonCall(http.MethodPut, "/users/profile", update)
	if err != nil {
		return failure[User](KindInvalidResponse, err.Error(), 0)
	}
	in.authMessage = MsgMustLogIn
	raw := c.send(ctx, "update_my_profile", in)
	res := as[User](c, "update_my_profile", raw)
	if res.OK() && len(raw.Data) > 0 {
		if err := c.session.SaveUser(raw.Data); err != nil {
			c.logger.Error().Err(err).Msg("update cached session user")
		}
	}
	return res
}

// GetUserProfile fetches another user's public profile.
func (c *Client) GetUserProfile(ctx context.Context, userID ID) Result[PublicUser] {
	raw := c.send(ctx, "get_user_profile", call{
		method: http.MethodGet,
		path:   idPath("/users/", userID),
		route:  "/users/{id}",
	})
	return as[PublicUser](c, "get_user_profile", raw)
}
