package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kumar-mithlesh/headless-api/internal/api/middleware"
	"github.com/kumar-mithlesh/headless-api/internal/cache"
	"github.com/kumar-mithlesh/headless-api/internal/config"
	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/mocks"
	"github.com/kumar-mithlesh/headless-api/internal/platform/memory"
	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/resources"
	"github.com/kumar-mithlesh/headless-api/internal/service"
	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
	"github.com/kumar-mithlesh/headless-api/internal/service/authz"
)

const (
	testSecret   = "handler-test-secret-long-enough-for-hs256"
	testPageSize = 5
)

type testEnv struct {
	store    *memory.Store
	registry *resource.Registry
	users    *resource.Definition
	roles    *resource.Definition
	records  service.RecordService
	tokens   auth.TokenService
	mailer   *mocks.MockMailer
	cache    *cache.ResponseCache
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	passwords := &mocks.MockPasswordVerifier{}
	reg, err := resources.NewRegistry(passwords)
	require.NoError(t, err)
	users, _ := reg.Lookup("users")
	roles, _ := reg.Lookup("roles")

	tokens, err := auth.NewTokenService(config.AuthConfig{
		JWTSecret:                   testSecret,
		SessionTokenLifetimeMinutes: 60,
		ResetTokenLifetimeMinutes:   30,
	})
	require.NoError(t, err)

	st := memory.NewStore()
	records := service.NewRecordService(st, reg, nil)
	serializer := resource.NewSerializer(reg, st)
	responses := cache.New(config.CacheConfig{TTLSeconds: 60, Namespace: "test"}, nil)
	mailer := &mocks.MockMailer{}

	pipeline := Pipeline{
		Registry:   reg,
		Store:      st,
		Records:    records,
		Gate:       authz.NewGate(nil),
		Serializer: serializer,
		Paginator:  resource.NewPaginator(testPageSize),
		Cache:      responses,
	}
	authHandler := NewAuthHandler(AuthHandlerConfig{
		Users:      users,
		Store:      st,
		Records:    records,
		Tokens:     tokens,
		Passwords:  passwords,
		Mailer:     mailer,
		ResetURL:   "https://app.example.com/reset",
		Serializer: serializer,
	})
	authn := middleware.NewAuthMiddleware(tokens, st, nil)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot_password", authHandler.ForgotPassword)
		r.Post("/reset_password", authHandler.ResetPassword)
		r.With(authn.Authenticate).Post("/logout", authHandler.Logout)
	})
	r.Group(func(r chi.Router) {
		r.Use(authn.Authenticate)
		for _, def := range reg.All() {
			NewResourceHandler(def, pipeline).Routes(r)
		}
	})

	return &testEnv{
		store:    st,
		registry: reg,
		users:    users,
		roles:    roles,
		records:  records,
		tokens:   tokens,
		mailer:   mailer,
		cache:    responses,
		router:   r,
	}
}

// do sends a request with an optional JSON body and session token.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// createUser persists a user whose password is "secret123".
func (e *testEnv) createUser(t *testing.T, username, email string) *domain.Record {
	t.Helper()
	in := resource.Input{
		domain.AttrUsername:                 username,
		domain.AttrEmail:                    email,
		resources.InputPassword:             "secret123",
		resources.InputPasswordConfirmation: "secret123",
	}
	r, err := e.records.Build(context.Background(), e.users, in)
	require.NoError(t, err)
	require.NoError(t, e.records.Create(context.Background(), e.users, r, in))
	return r
}

func (e *testEnv) createRole(t *testing.T, name string) *domain.Record {
	t.Helper()
	in := resource.Input{"name": name}
	r, err := e.records.Build(context.Background(), e.roles, in)
	require.NoError(t, err)
	require.NoError(t, e.records.Create(context.Background(), e.roles, r, in))
	return r
}

func (e *testEnv) session(t *testing.T, user *domain.Record) string {
	t.Helper()
	token, err := e.tokens.IssueSession(context.Background(), domain.PrincipalFromRecord(user))
	require.NoError(t, err)
	return token
}

type document struct {
	Data     json.RawMessage   `json:"data"`
	Included []resourceObject  `json:"included"`
	Meta     map[string]any    `json:"meta"`
	Links    map[string]string `json:"links"`
}

type resourceObject struct {
	ID            string                     `json:"id"`
	Type          string                     `json:"type"`
	Attributes    map[string]any             `json:"attributes"`
	Relationships map[string]json.RawMessage `json:"relationships"`
}

type errorBody struct {
	Error  string              `json:"error"`
	Name   string              `json:"name"`
	Errors map[string][]string `json:"errors"`
}

func decodeDocument(t *testing.T, rec *httptest.ResponseRecorder) document {
	t.Helper()
	var doc document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	return doc
}

func (d document) one(t *testing.T) resourceObject {
	t.Helper()
	var obj resourceObject
	require.NoError(t, json.Unmarshal(d.Data, &obj))
	return obj
}

func (d document) many(t *testing.T) []resourceObject {
	t.Helper()
	var objs []resourceObject
	require.NoError(t, json.Unmarshal(d.Data, &objs))
	return objs
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
