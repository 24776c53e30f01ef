package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/mail"
	"github.com/kumar-mithlesh/headless-api/internal/mocks"
	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/service"
	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
)

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/signup", map[string]any{
		"user": map[string]any{
			"username":              "alice",
			"email":                 "Alice@Example.com",
			"password":              "secret123",
			"password_confirmation": "secret123",
		},
	}, "")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decodeDocument(t, rec)
	obj := doc.one(t)
	assert.Equal(t, MsgSignedUp, doc.Meta["message"])
	assert.NotContains(t, doc.Meta, "token")
	assert.Equal(t, "alice@example.com", obj.Attributes["email"])
	assert.NotContains(t, obj.Attributes, "password_digest")

	stored, err := env.store.Find(context.Background(), "users", obj.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.GetString(domain.AttrUsername))
	assert.Equal(t, "hashed:secret123", stored.GetString(domain.AttrPasswordDigest))
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice@example.com")

	tests := []struct {
		name   string
		user   map[string]any
		fields []string
	}{
		{
			name:   "blank",
			user:   map[string]any{},
			fields: []string{"username", "email", "password"},
		},
		{
			name: "taken",
			user: map[string]any{
				"username":              "alice",
				"email":                 "ALICE@example.com",
				"password":              "secret123",
				"password_confirmation": "secret123",
			},
			fields: []string{"username", "email"},
		},
		{
			name: "missing confirmation",
			user: map[string]any{
				"username": "dave",
				"email":    "dave@example.com",
				"password": "secret123",
			},
			fields: []string{"password_confirmation"},
		},
		{
			name: "confirmation mismatch",
			user: map[string]any{
				"username":              "bob",
				"email":                 "bob@example.com",
				"password":              "secret123",
				"password_confirmation": "secret124",
			},
			fields: []string{"password_confirmation"},
		},
		{
			name: "short password",
			user: map[string]any{
				"username":              "bob",
				"email":                 "bob@example.com",
				"password":              "abc",
				"password_confirmation": "abc",
			},
			fields: []string{"password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/auth/signup", map[string]any{"user": tt.user}, "")
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			body := decodeError(t, rec)
			for _, field := range tt.fields {
				assert.Contains(t, body.Errors, field)
			}
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")

	tests := []struct {
		name       string
		login      string
		password   string
		wantStatus int
	}{
		{"by username", "alice", "secret123", http.StatusOK},
		{"by email", "ALICE@example.com", "secret123", http.StatusOK},
		{"wrong password", "alice", "secret124", http.StatusUnprocessableEntity},
		{"unknown user", "nobody", "secret123", http.StatusNotFound},
		{"unknown email", "nobody@example.com", "secret123", http.StatusNotFound},
		{"missing password", "alice", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/auth/login", map[string]any{
				"username_or_email": tt.login,
				"password":          tt.password,
			}, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus != http.StatusOK {
				assert.NotContains(t, rec.Body.String(), `"token"`)
				return
			}
			doc := decodeDocument(t, rec)
			assert.Equal(t, MsgLoggedIn, doc.Meta["message"])
			token, _ := doc.Meta["token"].(string)
			require.NotEmpty(t, token)
			assert.Equal(t, alice.ID, doc.one(t).ID)

			claims, err := env.tokens.VerifyPurpose(context.Background(), token, auth.PurposeSession)
			require.NoError(t, err)
			assert.Equal(t, alice.ID, claims.SubjectID)
			assert.Equal(t, "alice", claims.SubjectHandle)
		})
	}
}

func TestLoginWrongPasswordMessage(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice@example.com")

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]any{
		"username_or_email": "alice",
		"password":          "nope-nope",
	}, "")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Incorrect password", decodeError(t, rec).Error)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")

	rec := env.do(t, http.MethodPost, "/auth/logout", nil, "Bearer "+env.session(t, alice))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, MsgLoggedOut, decodeDocument(t, rec).Meta["message"])

	rec = env.do(t, http.MethodPost, "/auth/logout", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/logout", nil, "garbage")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(auth.KindMalformed), decodeError(t, rec).Name)
}

func TestForgotPasswordAlwaysSucceeds(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")

	known := env.do(t, http.MethodPost, "/auth/forgot_password", map[string]any{"email": "alice@example.com"}, "")
	unknown := env.do(t, http.MethodPost, "/auth/forgot_password", map[string]any{"email": "ghost@example.com"}, "")

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	sent := env.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, mail.TemplateForgotPassword, sent[0].Template)

	link, err := url.Parse(sent[0].Payload["reset_url"])
	require.NoError(t, err)
	claims, err := env.tokens.VerifyPurpose(context.Background(), link.Query().Get("token"), auth.PurposeReset)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, claims.SubjectID)
}

func TestForgotPasswordSwallowsMailFailure(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice@example.com")
	env.mailer.Err = errors.New("smtp down")

	rec := env.do(t, http.MethodPost, "/auth/forgot_password", map[string]any{"email": "alice@example.com"}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")
	reset, err := env.tokens.IssueReset(context.Background(), domain.PrincipalFromRecord(alice))
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/auth/reset_password", map[string]any{
		"password":              "newsecret",
		"password_confirmation": "newsecret",
	}, reset)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, MsgPasswordReset, decodeDocument(t, rec).Meta["message"])

	stored, err := env.store.Find(context.Background(), "users", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed:newsecret", stored.GetString(domain.AttrPasswordDigest))

	// Reset tokens are single use.
	rec = env.do(t, http.MethodPost, "/auth/reset_password", map[string]any{
		"password":              "another1",
		"password_confirmation": "another1",
	}, reset)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(auth.KindRevoked), decodeError(t, rec).Name)
}

func TestResetPasswordRejectsSessionToken(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")

	rec := env.do(t, http.MethodPost, "/auth/reset_password", map[string]any{
		"password": "newsecret",
	}, env.session(t, alice))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(auth.KindMalformed), decodeError(t, rec).Name)
}

func TestResetPasswordExpiredTokenLeavesCredential(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     alice.ID,
		"purpose": string(auth.PurposeReset),
		"iat":     time.Now().Add(-2 * time.Hour).Unix(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
		"jti":     "expired-reset",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/auth/reset_password", map[string]any{
		"password":              "newsecret",
		"password_confirmation": "newsecret",
	}, expired)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(auth.KindExpired), body.Name)
	assert.Equal(t, "Signature has expired", body.Error)

	stored, err := env.store.Find(context.Background(), "users", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed:secret123", stored.GetString(domain.AttrPasswordDigest))
}

func TestResetPasswordValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")
	reset, err := env.tokens.IssueReset(context.Background(), domain.PrincipalFromRecord(alice))
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/auth/reset_password", map[string]any{"password": ""}, reset)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"can't be blank"}, decodeError(t, rec).Errors["password"])

	rec = env.do(t, http.MethodPost, "/auth/reset_password", map[string]any{
		"password":              "newsecret",
		"password_confirmation": "different",
	}, reset)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Errors, "password_confirmation")

	// A failed attempt does not spend the token.
	rec = env.do(t, http.MethodPost, "/auth/reset_password", map[string]any{
		"password":              "newsecret",
		"password_confirmation": "newsecret",
	}, reset)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForgotPasswordStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	failing := &mocks.MockEntityStore{Err: errors.New("connection reset")}
	handler := NewAuthHandler(AuthHandlerConfig{
		Users:      env.users,
		Store:      failing,
		Records:    env.records,
		Tokens:     env.tokens,
		Passwords:  &mocks.MockPasswordVerifier{},
		Mailer:     env.mailer,
		Serializer: resource.NewSerializer(env.registry, failing),
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/forgot_password",
		strings.NewReader(`{"email":"alice@example.com"}`))
	rec := httptest.NewRecorder()
	handler.ForgotPassword(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	assert.Empty(t, env.mailer.Sent())
}

func TestSignupStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	failing := &mocks.MockEntityStore{Err: errors.New("connection reset")}
	handler := NewAuthHandler(AuthHandlerConfig{
		Users:      env.users,
		Store:      failing,
		Records:    service.NewRecordService(failing, env.registry, nil),
		Tokens:     env.tokens,
		Passwords:  &mocks.MockPasswordVerifier{},
		Mailer:     env.mailer,
		Serializer: resource.NewSerializer(env.registry, failing),
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(
		`{"user":{"username":"dave","email":"dave@example.com","password":"secret123","password_confirmation":"secret123"}}`))
	rec := httptest.NewRecorder()
	handler.Signup(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code, "uniqueness checks must not pass on a store failure")
	assert.NotContains(t, rec.Body.String(), "connection reset")
}
