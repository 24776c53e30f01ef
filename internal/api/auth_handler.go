package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kumar-mithlesh/headless-api/internal/api/middleware"
	"github.com/kumar-mithlesh/headless-api/internal/api/shared"
	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/mail"
	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
	"github.com/kumar-mithlesh/headless-api/internal/redact"
	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/resources"
	"github.com/kumar-mithlesh/headless-api/internal/service"
	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
	"github.com/kumar-mithlesh/headless-api/internal/service/authz"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// Messages reported in meta.message by the authentication endpoints.
const (
	MsgSignedUp      = "Signed up successfully."
	MsgLoggedIn      = "Logged in successfully."
	MsgLoggedOut     = "Logged out successfully."
	MsgResetSent     = "Reset password instructions have been sent to your email address if an account exists."
	MsgPasswordReset = "Password was successfully reset."
)

// Mailer queues outgoing mail.
type Mailer interface {
	Dispatch(ctx context.Context, msg mail.Message) error
}

// AuthHandler serves the authentication endpoints for the users resource.
type AuthHandler struct {
	users      *resource.Definition
	store      store.EntityStore
	records    service.RecordService
	tokens     auth.TokenService
	passwords  auth.PasswordVerifier
	mailer     Mailer
	resetURL   string
	serializer *resource.Serializer
	logger     *slog.Logger
}

// AuthHandlerConfig collects the dependencies of an AuthHandler.
type AuthHandlerConfig struct {
	Users      *resource.Definition
	Store      store.EntityStore
	Records    service.RecordService
	Tokens     auth.TokenService
	Passwords  auth.PasswordVerifier
	Mailer     Mailer
	ResetURL   string
	Serializer *resource.Serializer
	Logger     *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		users:      cfg.Users,
		store:      cfg.Store,
		records:    cfg.Records,
		tokens:     cfg.Tokens,
		passwords:  cfg.Passwords,
		mailer:     cfg.Mailer,
		resetURL:   cfg.ResetURL,
		serializer: cfg.Serializer,
		logger:     log.With(slog.String("component", "auth_handler")),
	}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attrs, err := shared.ResourceAttributes(r, h.users.Singular)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	in := h.users.Permit(authz.ActionCreate, attrs)

	user, err := h.records.Build(ctx, h.users, in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := h.records.Create(ctx, h.users, user, in); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	h.renderUser(w, r, http.StatusCreated, user, map[string]any{"message": MsgSignedUp})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %v", domain.ErrMalformedRequest, err))
		return
	}

	user, err := resources.FindUserByLogin(ctx, h.store, req.Login)
	if err != nil {
		if store.IsNotFoundError(err) {
			HandleAPIError(w, r, fmt.Errorf("%w: user %s", domain.ErrRecordNotFound, redact.Email(req.Login)))
			return
		}
		HandleAPIError(w, r, err)
		return
	}

	if err := h.passwords.Compare(user.GetString(domain.AttrPasswordDigest), req.Password); err != nil {
		log.Debug("login rejected", "user_id", user.ID)
		v := domain.NewValidationErrors()
		v.Add("base", "Incorrect password")
		HandleAPIError(w, r, v)
		return
	}

	principal := domain.PrincipalFromRecord(user)
	token, err := h.tokens.IssueSession(ctx, principal)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	log.Info("user logged in", "user_id", user.ID)

	ctx = shared.WithPrincipal(ctx, principal)
	h.renderUser(w, r.WithContext(ctx), http.StatusOK, user, map[string]any{
		"message": MsgLoggedIn,
		"token":   token,
	})
}

// Logout handles POST /auth/logout. Tokens are stateless, so logging out only
// confirms that the presented session resolved to a user.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p := shared.PrincipalFrom(r.Context())
	if p == nil {
		HandleAPIError(w, r, fmt.Errorf("%w: no session", domain.ErrRecordNotFound))
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resource.Document{
		Meta: map[string]any{"message": MsgLoggedOut},
	})
}

// ForgotPassword handles POST /auth/forgot_password. The response is the
// same whether or not the address belongs to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req ForgotPasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %v", domain.ErrMalformedRequest, err))
		return
	}

	user, err := resources.FindUserByLogin(ctx, h.store, req.Email)
	switch {
	case err == nil:
		if err := h.sendReset(ctx, user); err != nil {
			log.Error("failed to send reset instructions",
				"user_id", user.ID,
				"error", redact.Error(err))
		}
	case store.IsNotFoundError(err):
		log.Debug("reset requested for unknown account", "email", redact.Email(req.Email))
	default:
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resource.Document{
		Meta: map[string]any{"message": MsgResetSent},
	})
}

func (h *AuthHandler) sendReset(ctx context.Context, user *domain.Record) error {
	token, err := h.tokens.IssueReset(ctx, domain.PrincipalFromRecord(user))
	if err != nil {
		return err
	}
	msg := mail.ForgotPassword(h.resetURL, user.GetString(domain.AttrEmail), token)
	return h.mailer.Dispatch(ctx, msg)
}

// ResetPassword handles POST /auth/reset_password. The reset token is read
// from the Authorization header and is spent on success.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	claims, err := h.tokens.VerifyPurpose(ctx, middleware.TokenFromHeader(r), auth.PurposeReset)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	user, err := resource.Find(ctx, h.store, h.users, store.NewScope(h.users.Type), claims.SubjectID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	var req ResetPasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if req.Password == "" {
		v := domain.NewValidationErrors()
		v.Add(resources.InputPassword, "can't be blank")
		HandleAPIError(w, r, v)
		return
	}

	in := resource.Input{
		resources.InputPassword:             req.Password,
		resources.InputPasswordConfirmation: req.PasswordConfirmation,
	}
	if err := h.records.Update(ctx, h.users, user, in); err != nil {
		var v *domain.ValidationErrors
		if !errors.As(err, &v) {
			log.Error("failed to reset password", "user_id", user.ID, "error", redact.Error(err))
		}
		HandleAPIError(w, r, err)
		return
	}
	h.tokens.Consume(ctx, claims)
	log.Info("password reset", "user_id", user.ID)

	shared.RespondWithJSON(w, r, http.StatusOK, resource.Document{
		Meta: map[string]any{"message": MsgPasswordReset},
	})
}

func (h *AuthHandler) renderUser(w http.ResponseWriter, r *http.Request, status int, user *domain.Record, meta map[string]any) {
	ctx := r.Context()
	doc, err := h.serializer.One(ctx, h.users, user, resource.Options{
		Principal: shared.PrincipalFrom(ctx),
		Meta:      meta,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, status, doc)
}
