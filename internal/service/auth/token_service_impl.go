package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/kumar-mithlesh/headless-api/internal/config"
	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
)

// hmacTokenService signs tokens with HMAC-SHA256.
type hmacTokenService struct {
	signingKey  []byte
	sessionTTL  time.Duration
	resetTTL    time.Duration
	timeFunc    func() time.Time
	clockSkew   time.Duration
	consumedIDs *gocache.Cache
}

type jwtCustomClaims struct {
	Username string            `json:"username,omitempty"`
	Purpose  Purpose           `json:"purpose"`
	Extra    map[string]string `json:"ext,omitempty"`
	jwt.RegisteredClaims
}

var _ TokenService = (*hmacTokenService)(nil)

// NewTokenService builds the HMAC token service from auth configuration. A
// secret shorter than 32 bytes is rejected.
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	return newTokenService(cfg, time.Now)
}

func newTokenService(cfg config.AuthConfig, timeFunc func() time.Time) (*hmacTokenService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, ErrMissingSecret
	}
	sessionTTL := time.Duration(cfg.SessionTokenLifetimeMinutes) * time.Minute
	if sessionTTL <= 0 {
		sessionTTL = SessionTokenLifetime
	}
	resetTTL := time.Duration(cfg.ResetTokenLifetimeMinutes) * time.Minute
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &hmacTokenService{
		signingKey:  []byte(cfg.JWTSecret),
		sessionTTL:  sessionTTL,
		resetTTL:    resetTTL,
		timeFunc:    timeFunc,
		consumedIDs: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}, nil
}

func (s *hmacTokenService) Issue(ctx context.Context, claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	now := s.timeFunc()

	// exp is encoded in whole seconds; round up so short lifetimes never
	// land at or before now
	expiresAt := now.Add(ttl)
	if rounded := expiresAt.Truncate(time.Second); !rounded.Equal(expiresAt) {
		expiresAt = rounded.Add(time.Second)
	}

	c := jwtCustomClaims{
		Username: claims.SubjectHandle,
		Purpose:  claims.Purpose,
		Extra:    claims.Extra,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.signingKey)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign token",
			"error", err,
			"purpose", claims.Purpose,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign token with HMAC-SHA256: %w", err)
	}
	return signed, nil
}

func (s *hmacTokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, newTokenError(KindMalformed, nil)
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		kind := classify(err)
		log.Debug("token verification failed", "kind", kind, "error", err)
		return nil, newTokenError(kind, err)
	}

	c, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid || c.ExpiresAt == nil {
		return nil, newTokenError(KindMalformed, nil)
	}

	if _, spent := s.consumedIDs.Get(c.ID); spent {
		log.Debug("token verification failed", "kind", KindRevoked, "token_id", c.ID)
		return nil, newTokenError(KindRevoked, nil)
	}

	claims := &Claims{
		SubjectID:     c.Subject,
		SubjectHandle: c.Username,
		Purpose:       c.Purpose,
		Extra:         c.Extra,
		ExpiresAt:     c.ExpiresAt.Time,
		ID:            c.ID,
	}
	if c.IssuedAt != nil {
		claims.IssuedAt = c.IssuedAt.Time
	}
	return claims, nil
}

// classify maps jwt parse failures onto token error kinds. Signature checks
// run before claim validation, so an expired token with a forged signature is
// reported as BadSignature.
func classify(err error) TokenErrorKind {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return KindExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return KindBadSignature
	default:
		return KindMalformed
	}
}

func (s *hmacTokenService) VerifyPurpose(ctx context.Context, token string, purpose Purpose) (*Claims, error) {
	claims, err := s.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		logger.FromContext(ctx).Debug("token purpose mismatch",
			"expected", purpose,
			"actual", claims.Purpose)
		return nil, newTokenError(KindMalformed, fmt.Errorf("token purpose %q is not %q", claims.Purpose, purpose))
	}
	return claims, nil
}

func (s *hmacTokenService) IssueSession(ctx context.Context, p *domain.Principal) (string, error) {
	return s.Issue(ctx, Claims{SubjectID: p.ID, SubjectHandle: p.Handle, Purpose: PurposeSession}, s.sessionTTL)
}

func (s *hmacTokenService) IssueReset(ctx context.Context, p *domain.Principal) (string, error) {
	return s.Issue(ctx, Claims{SubjectID: p.ID, Purpose: PurposeReset}, s.resetTTL)
}

func (s *hmacTokenService) Consume(ctx context.Context, claims *Claims) {
	if claims == nil || claims.ID == "" {
		return
	}
	remaining := claims.ExpiresAt.Add(s.clockSkew).Sub(s.timeFunc())
	if remaining <= 0 {
		return
	}
	s.consumedIDs.Set(claims.ID, struct{}{}, remaining)
	logger.FromContext(ctx).Debug("token consumed", "token_id", claims.ID, "purpose", claims.Purpose)
}
