package tradeco_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeco/tradeco_sdk_go/pkg/session"
	"github.com/tradeco/tradeco_sdk_go/pkg/tradeco"
)

func newClient(t *testing.T, handler http.HandlerFunc) (*tradeco.Client, *session.Store, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	store := session.New(session.NewMemoryStorage())
	client, err := tradeco.New(srv.URL+"/api", store)
	require.NoError(t, err)
	return client, store, &hits
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestLoginStoresSession(t *testing.T) {
	client, store, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"email": "a@x.com", "password": "pw"}, body)
		writeBody(w, http.StatusOK, `{"success":true,"data":{"token":"t1","user":{"id":1,"username":"a"}}}`)
	})

	res := client.Login(context.Background(), "a@x.com", "pw")
	require.True(t, res.OK())
	require.NoError(t, res.Err())
	assert.Equal(t, "t1", res.Data.Token)
	assert.Equal(t, tradeco.ID("1"), res.Data.User.ID)

	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "t1", token)
	raw, ok := store.RawUser()
	require.True(t, ok)
	assert.JSONEq(t, `{"id":1,"username":"a"}`, string(raw))
	assert.True(t, client.IsAuthenticated())

	u, ok := client.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "a", u.Username)
}

func TestRejectedLoginLeavesSessionUntouched(t *testing.T) {
	client, store, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusUnauthorized, `{"success":false,"message":"Email o contraseña incorrectos"}`)
	})

	res := client.Login(context.Background(), "a@x.com", "bad")
	assert.False(t, res.OK())
	assert.Equal(t, tradeco.KindRejected, res.Kind)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Email o contraseña incorrectos", res.Message)
	assert.True(t, errors.Is(res.Err(), tradeco.ErrRejected))
	assert.False(t, store.IsAuthenticated())
}

func TestUndecodableLoginDataLeavesSessionUntouched(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "bad user id", body: `{"success":true,"data":{"token":"t1","user":{"id":true}}}`},
		{name: "data not an object", body: `{"success":true,"data":["t1"]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, store, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeBody(w, http.StatusOK, tc.body)
			})

			res := client.Login(context.Background(), "a@x.com", "pw")
			assert.False(t, res.OK())
			assert.Equal(t, tradeco.KindInvalidResponse, res.Kind)

			_, ok := store.Token()
			assert.False(t, ok)
			_, ok = store.RawUser()
			assert.False(t, ok)
			assert.False(t, client.IsAuthenticated())
		})
	}
}

func TestRegisterStoresSession(t *testing.T) {
	client, store, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana_g", body["username"])
		assert.NotContains(t, body, "telefono")
		writeBody(w, http.StatusCreated, `{"success":true,"message":"ok","data":{"token":"t2","user":{"id":"u2","username":"ana_g"}}}`)
	})

	res := client.Register(context.Background(), tradeco.RegisterRequest{
		Username: "ana_g", Email: "ana@x.com", Password: "Secreta123", Name: "Ana",
	})
	require.True(t, res.OK())
	assert.Equal(t, http.StatusCreated, res.Status)
	token, _ := store.Token()
	assert.Equal(t, "t2", token)
}

func TestAuthRequiredCallsNeverHitTheNetwork(t *testing.T) {
	client, _, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"success":true}`)
	})
	ctx := context.Background()

	checks := []struct {
		name    string
		message string
		err     error
	}{
		{"create", tradeco.MsgMustLogInToPublish, client.CreateProduct(ctx, tradeco.ProductForm{Name: "x"}).Err()},
		{"update", tradeco.MsgMustLogIn, client.UpdateProduct(ctx, "p1", tradeco.ProductForm{}).Err()},
		{"delete", tradeco.MsgMustLogIn, client.DeleteProduct(ctx, "p1").Err()},
		{"profile", tradeco.MsgMustLogIn, client.GetMyProfile(ctx).Err()},
		{"update profile", tradeco.MsgMustLogIn, client.UpdateMyProfile(ctx, tradeco.ProfileUpdate{}).Err()},
		{"list users", tradeco.MsgMustLogIn, client.ListUsers(ctx, 1, 0).Err()},
		{"stats", tradeco.MsgMustLogIn, client.DashboardStats(ctx).Err()},
		{"by category", tradeco.MsgMustLogIn, client.ProductsByCategory(ctx).Err()},
		{"recent activity", tradeco.MsgMustLogIn, client.RecentActivity(ctx).Err()},
		{"users growth", tradeco.MsgMustLogIn, client.UsersGrowth(ctx).Err()},
		{"top sellers", tradeco.MsgMustLogIn, client.TopSellers(ctx).Err()},
		{"price stats", tradeco.MsgMustLogIn, client.PriceStats(ctx).Err()},
	}

	for _, c := range checks {
		var tErr *tradeco.Error
		require.True(t, errors.As(c.err, &tErr), c.name)
		assert.Equal(t, tradeco.KindUnauthenticated, tErr.Kind, c.name)
		assert.Equal(t, c.message, tErr.Message, c.name)
		assert.Zero(t, tErr.Status, c.name)
	}
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestCreateProductWithoutTokenScenario(t *testing.T) {
	client, _, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {})

	res := client.CreateProduct(context.Background(), tradeco.ProductForm{Name: "Campera", Category: "Abrigos"})
	assert.False(t, res.Success)
	assert.Equal(t, "must log in to publish", res.Message)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestBearerHeaderAndMultipartForm(t *testing.T) {
	client, store, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, "multipart/form-data", mediaType)

		reader := multipart.NewReader(r.Body, params["boundary"])
		form, err := reader.ReadForm(1 << 20)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, []string{"Campera"}, form.Value["nombre"])
		assert.Equal(t, []string{"1500.5"}, form.Value["precio"])
		assert.Equal(t, []string{"Abrigos"}, form.Value["categoria"])
		assert.NotContains(t, form.Value, "descripcion")
		assert.NotContains(t, form.Value, "talla")
		if !assert.Len(t, form.File["imagen"], 1) {
			return
		}
		assert.Equal(t, "foto.png", form.File["imagen"][0].Filename)
		assert.Equal(t, "image/png", form.File["imagen"][0].Header.Get("Content-Type"))

		writeBody(w, http.StatusCreated, `{"success":true,"message":"Producto publicado exitosamente","data":{"id":"p1","nombre":"Campera","precio":1500.5,"categoria":"Abrigos","user_id":"u1"}}`)
	})
	require.NoError(t, store.SaveToken("tok"))

	res := client.CreateProduct(context.Background(), tradeco.ProductForm{
		Name:     "Campera",
		Price:    tradeco.Price(1500.5),
		Category: "Abrigos",
		Image:    &tradeco.Image{Filename: "foto.png", ContentType: "image/png", Data: strings.NewReader("png-bytes")},
	})
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, tradeco.ID("p1"), res.Data.ID)
	assert.Equal(t, 1500.5, res.Data.Price)
}

func TestListingQueries(t *testing.T) {
	var queries []string
	client, _, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		writeBody(w, http.StatusOK, `{"success":true,"data":{"products":[],"pagination":{"page":1,"limit":20,"total":0,"pages":0}}}`)
	})
	ctx := context.Background()

	client.GetProducts(ctx, 2, 20, tradeco.ProductFilter{Category: "tools"})
	client.FilterByCategory(ctx, "tools", 2, 20)
	client.GetProducts(ctx, 0, 0, tradeco.ProductFilter{})
	client.SearchProducts(ctx, "campera azul", 1, 0)
	client.FilterByCategory(ctx, "Ropa & Más", -3, 0)

	require.Len(t, queries, 5)
	assert.Equal(t, queries[0], queries[1])
	assert.Equal(t, "/api/products/?categoria=tools&limit=20&page=2", queries[0])
	assert.Equal(t, "/api/products/?limit=20&page=1", queries[2])
	assert.Equal(t, "/api/products/?page=1&search=campera+azul", queries[3])
	assert.Equal(t, "/api/products/?categoria=Ropa+%26+M%C3%A1s&page=1", queries[4])
}

func TestPathIDsAreEscaped(t *testing.T) {
	var paths []string
	client, _, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		writeBody(w, http.StatusOK, `{"success":true,"data":[]}`)
	})
	ctx := context.Background()

	res := client.GetUserProducts(ctx, "a/b", 1, 0)
	require.True(t, res.OK())
	client.GetUserProfile(ctx, "u 1")

	assert.Equal(t, []string{"/api/products/user/a%2Fb", "/api/users/u%201"}, paths)
}

func TestUpdateMyProfileRefreshesCachedUser(t *testing.T) {
	client, store, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"nombre": "Nuevo"}, body)
		writeBody(w, http.StatusOK, `{"success":true,"message":"Perfil actualizado exitosamente","data":{"id":"u1","username":"a","nombre":"Nuevo"}}`)
	})
	require.NoError(t, store.SaveSession("tok", map[string]any{"id": "u1", "username": "a", "nombre": "Viejo"}))

	name := "Nuevo"
	res := client.UpdateMyProfile(context.Background(), tradeco.ProfileUpdate{Name: &name})
	require.True(t, res.OK())

	raw, ok := store.RawUser()
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"u1","username":"a","nombre":"Nuevo"}`, string(raw))
}

func TestRejectedProfileUpdateKeepsCachedUser(t *testing.T) {
	client, store, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusBadRequest, `{"success":false,"message":"Número de teléfono inválido"}`)
	})
	require.NoError(t, store.SaveSession("tok", map[string]string{"id": "u1"}))

	phone := "1"
	res := client.UpdateMyProfile(context.Background(), tradeco.ProfileUpdate{Phone: &phone})
	assert.Equal(t, tradeco.KindRejected, res.Kind)

	raw, _ := store.RawUser()
	assert.JSONEq(t, `{"id":"u1"}`, string(raw))
}

func TestUndecodableProfileUpdateKeepsCachedUser(t *testing.T) {
	client, store, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"success":true,"data":{"id":true}}`)
	})
	require.NoError(t, store.SaveSession("tok", map[string]string{"id": "u1"}))

	name := "Nuevo"
	res := client.UpdateMyProfile(context.Background(), tradeco.ProfileUpdate{Name: &name})
	assert.Equal(t, tradeco.KindInvalidResponse, res.Kind)

	raw, _ := store.RawUser()
	assert.JSONEq(t, `{"id":"u1"}`, string(raw))
}

func TestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := tradeco.New(url+"/api", nil)
	require.NoError(t, err)

	res := client.GetCategories(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, tradeco.MsgConnection, res.Message)
	assert.Equal(t, tradeco.KindConnection, res.Kind)
	assert.Zero(t, res.Status)
	assert.True(t, errors.Is(res.Err(), tradeco.ErrConnection))
}

func TestCancelledContextIsConnectionFailure(t *testing.T) {
	client, _, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"success":true,"data":[]}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := client.GetCategories(ctx)
	assert.Equal(t, tradeco.KindConnection, res.Kind)
	assert.Equal(t, tradeco.MsgConnection, res.Message)
}

func TestNonEnvelopeResponses(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "html error page", status: http.StatusBadGateway, body: "<html>bad gateway</html>"},
		{name: "empty body", status: http.StatusOK, body: ""},
		{name: "json without success", status: http.StatusOK, body: `{"data":[]}`},
		{name: "truncated json", status: http.StatusOK, body: `{"success":tr`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			res := client.GetCategories(context.Background())
			assert.False(t, res.Success)
			assert.Equal(t, tradeco.KindInvalidResponse, res.Kind)
			assert.Equal(t, tc.status, res.Status)
			assert.Contains(t, res.Message, "unexpected server response")
		})
	}
}

func TestEnvelopeOnErrorStatusPassesThrough(t *testing.T) {
	client, _, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusNotFound, `{"success":false,"message":"Producto no encontrado"}`)
	})

	res := client.GetProduct(context.Background(), "missing")
	assert.Equal(t, tradeco.KindRejected, res.Kind)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Producto no encontrado", res.Message)
}

func TestValidationErrorsAreKept(t *testing.T) {
	client, store, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusBadRequest, `{"success":false,"message":"Datos inválidos","errors":["La categoría es obligatoria"]}`)
	})
	require.NoError(t, store.SaveToken("tok"))

	res := client.CreateProduct(context.Background(), tradeco.ProductForm{Name: "x"})
	assert.Equal(t, []string{"La categoría es obligatoria"}, res.Errors)
}

func TestSuccessWithMismatchedDataIsInvalid(t *testing.T) {
	client, _, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"success":true,"data":{"not":"a list"}}`)
	})

	res := client.GetCategories(context.Background())
	assert.Equal(t, tradeco.KindInvalidResponse, res.Kind)
}

func TestLogoutClearsSession(t *testing.T) {
	client, store, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, store.SaveSession("tok", map[string]string{"id": "u1"}))

	require.NoError(t, client.Logout())
	assert.False(t, client.IsAuthenticated())
	_, ok := client.CurrentUser()
	assert.False(t, ok)
}

func TestIDAcceptsStringsAndNumbers(t *testing.T) {
	var p tradeco.Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"user_id":"u1","nombre":"x","precio":0,"categoria":"c"}`), &p))
	assert.Equal(t, tradeco.ID("42"), p.ID)
	assert.Equal(t, tradeco.ID("u1"), p.UserID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":null}`), &p))
	assert.Equal(t, tradeco.ID(""), p.ID)

	assert.Error(t, json.Unmarshal([]byte(`{"id":true}`), &p))
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := tradeco.New("not a url", nil)
	assert.Error(t, err)
	_, err = tradeco.NewWithHTTPClient(nil, nil)
	assert.Error(t, err)
}
