package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kumar-mithlesh/headless-api/internal/api/shared"
	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
	"github.com/kumar-mithlesh/headless-api/internal/redact"
	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// AuthMiddleware resolves the request principal from a session token.
type AuthMiddleware struct {
	tokens auth.TokenService
	store  store.EntityStore
	logger *slog.Logger
}

// NewAuthMiddleware creates an AuthMiddleware that loads principals from st.
func NewAuthMiddleware(tokens auth.TokenService, st store.EntityStore, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{
		tokens: tokens,
		store:  st,
		logger: log.With("component", "auth_middleware"),
	}
}

// TokenFromHeader returns the Authorization header value. The raw token is
// expected; a leading "Bearer " is tolerated.
func TokenFromHeader(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		h = strings.TrimSpace(h[7:])
	}
	return h
}

// Authenticate attaches the principal of a valid session token to the
// request context. Requests without a token proceed anonymously, as do
// tokens whose user no longer exists; the authorization gate decides what
// anonymous callers may do. An invalid token is rejected with 400.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromHeader(r)
		// No token: continue as anonymous
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		log := logger.FromContextOrDefault(ctx, m.logger)

		// Only session tokens authenticate; a reset token is rejected here
		claims, err := m.tokens.VerifyPurpose(ctx, token, auth.PurposeSession)
		if err != nil {
			// Token problems are client errors and carry their kind as the name
			var tokenErr *auth.TokenError
			if errors.As(err, &tokenErr) {
				shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, shared.ErrorResponse{
					Error: tokenErr.Message(),
					Name:  string(tokenErr.Kind),
				}, err, shared.WithElevatedLogLevel())
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, shared.ErrorResponse{
				Error: "Authentication error",
			}, err)
			return
		}

		// Load the principal by id and handle, so a renamed user needs a new session
		scope := store.NewScope("users").
			WithIDs(claims.SubjectID).
			WhereEq(domain.AttrUsername, claims.SubjectHandle)
		user, err := m.store.FindBy(ctx, scope)
		switch {
		case err == nil:
			ctx = shared.WithPrincipal(ctx, domain.PrincipalFromRecord(user))
		case store.IsNotFoundError(err):
			log.Debug("session token names an unknown user", "subject_id", claims.SubjectID)
		default:
			log.Error("failed to load principal",
				"subject_id", claims.SubjectID,
				"error", redact.Error(err))
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, shared.ErrorResponse{
				Error: "Authentication error",
			}, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
