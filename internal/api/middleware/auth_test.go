package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumar-mithlesh/headless-api/internal/api/shared"
	"github.com/kumar-mithlesh/headless-api/internal/config"
	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/mocks"
	"github.com/kumar-mithlesh/headless-api/internal/platform/memory"
	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
)

const testSecret = "middleware-test-secret-long-enough-32"

func seedAlice(t *testing.T, st *memory.Store) *domain.Record {
	t.Helper()
	r := domain.NewRecord("users")
	r.Set(domain.AttrUsername, "alice")
	r.Set(domain.AttrTimezone, "Asia/Tokyo")
	require.NoError(t, st.Create(context.Background(), r))
	return r
}

func newTokens(t *testing.T) auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService(config.AuthConfig{
		JWTSecret:                   testSecret,
		SessionTokenLifetimeMinutes: 60,
		ResetTokenLifetimeMinutes:   30,
	})
	require.NoError(t, err)
	return svc
}

// captured runs the middleware and returns the principal seen downstream.
func captured(t *testing.T, m *AuthMiddleware, header string) (*httptest.ResponseRecorder, *domain.Principal, bool) {
	t.Helper()
	var (
		seen   *domain.Principal
		called bool
	)
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = shared.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/api/users", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, seen, called
}

func TestAuthenticate(t *testing.T) {
	st := memory.NewStore()
	alice := seedAlice(t, st)
	tokens := newTokens(t)
	m := NewAuthMiddleware(tokens, st, nil)

	session, err := tokens.IssueSession(context.Background(), domain.PrincipalFromRecord(alice))
	require.NoError(t, err)
	reset, err := tokens.IssueReset(context.Background(), domain.PrincipalFromRecord(alice))
	require.NoError(t, err)
	stranger, err := tokens.IssueSession(context.Background(), &domain.Principal{ID: "nobody", Handle: "ghost"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
		wantName   string
	}{
		{name: "no header", wantStatus: http.StatusOK},
		{name: "raw token", header: session, wantStatus: http.StatusOK, wantUser: alice.ID},
		{name: "bearer prefix", header: "Bearer " + session, wantStatus: http.StatusOK, wantUser: alice.ID},
		{name: "unknown user stays anonymous", header: stranger, wantStatus: http.StatusOK},
		{name: "garbage", header: "not-a-token", wantStatus: http.StatusBadRequest, wantName: "MalformedToken"},
		{name: "reset token", header: reset, wantStatus: http.StatusBadRequest, wantName: "MalformedToken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, p, called := captured(t, m, tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantName != "" {
				assert.False(t, called)
				var body shared.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantName, body.Name)
				assert.NotEmpty(t, body.Error)
				return
			}

			require.True(t, called)
			if tt.wantUser == "" {
				assert.Nil(t, p)
				return
			}
			require.NotNil(t, p)
			assert.Equal(t, tt.wantUser, p.ID)
			assert.Equal(t, "Asia/Tokyo", p.Timezone)
		})
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	tokens := &mocks.MockTokenService{
		VerifyPurposeFn: func(context.Context, string, auth.Purpose) (*auth.Claims, error) {
			return nil, &auth.TokenError{Kind: auth.KindExpired}
		},
	}
	m := NewAuthMiddleware(tokens, memory.NewStore(), nil)

	w, _, called := captured(t, m, "expired")
	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Signature has expired","name":"ExpiredToken"}`, w.Body.String())
}

func TestAuthenticateStoreFailure(t *testing.T) {
	tokens := &mocks.MockTokenService{Claims: &auth.Claims{SubjectID: "u1", SubjectHandle: "alice"}}
	st := &mocks.MockEntityStore{Err: errors.New("connection refused")}
	m := NewAuthMiddleware(tokens, st, nil)

	w, _, called := captured(t, m, "token")
	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestTokenFromHeader(t *testing.T) {
	tests := []struct{ header, want string }{
		{"", ""},
		{"abc", "abc"},
		{"Bearer abc", "abc"},
		{"bearer   abc ", "abc"},
		{"Bearer", "Bearer"},
		{"Token abc", "Token abc"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", tt.header)
		assert.Equal(t, tt.want, TokenFromHeader(req), "header %q", tt.header)
	}
}
