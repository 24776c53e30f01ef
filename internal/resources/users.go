package resources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
	"github.com/kumar-mithlesh/headless-api/internal/service/authz"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// Input keys specific to users.
const (
	InputPassword             = "password"
	InputPasswordConfirmation = "password_confirmation"
	InputRoleIDs              = "role_ids"
)

// Password length bounds.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

var userPermitted = []string{
	domain.AttrUsername,
	domain.AttrEmail,
	domain.AttrTimezone,
	InputPassword,
	InputPasswordConfirmation,
	InputRoleIDs,
}

// Users returns the users resource. Passwords are hashed with hasher on
// assignment and never stored in clear.
func Users(hasher auth.PasswordHasher) *resource.Definition {
	u := &userAttributes{hasher: hasher, validate: validator.New()}
	return &resource.Definition{
		Type:     "users",
		Singular: "user",
		Name:     "User",
		Attributes: []string{
			domain.AttrUsername,
			domain.AttrEmail,
			domain.AttrTimezone,
			domain.AttrPasswordDigest,
		},
		Searchable: []string{domain.AttrUsername, domain.AttrEmail},
		Relationships: []resource.Relationship{
			{Name: "roles", Target: "roles", InputKey: InputRoleIDs},
		},
		EagerLoadable: []string{"roles"},
		Actions: map[authz.Action]resource.ActionConfig{
			authz.ActionList:   {},
			authz.ActionNew:    {},
			authz.ActionCreate: {Permitted: userPermitted},
			authz.ActionRead:   {},
			authz.ActionUpdate: {Permitted: userPermitted},
			authz.ActionDelete: {},
		},
		Policy: authz.OwnerPolicy{
			Restricted: []authz.Action{authz.ActionUpdate, authz.ActionDelete},
		},
		Finder:   FindUser,
		Assign:   u.assign,
		Validate: u.check,
		Deletion: resource.DeleteDiscard,
	}
}

// FindUser resolves a user by uuid, falling back to username.
func FindUser(ctx context.Context, st store.EntityStore, scope store.Scope, key string) (*domain.Record, error) {
	if _, err := uuid.Parse(key); err == nil {
		return st.FindBy(ctx, scope.WithIDs(key))
	}
	return st.FindBy(ctx, scope.WhereEq(domain.AttrUsername, key))
}

// FindUserByLogin resolves a user by email when login contains an @ and by
// username otherwise.
func FindUserByLogin(ctx context.Context, st store.EntityStore, login string) (*domain.Record, error) {
	login = strings.TrimSpace(login)
	scope := store.NewScope("users")
	if strings.Contains(login, "@") {
		return st.FindBy(ctx, scope.WhereEq(domain.AttrEmail, strings.ToLower(login)))
	}
	return st.FindBy(ctx, scope.WhereEq(domain.AttrUsername, login))
}

type userAttributes struct {
	hasher   auth.PasswordHasher
	validate *validator.Validate
}

func (u *userAttributes) assign(ctx context.Context, def *resource.Definition, r *domain.Record, in resource.Input) error {
	plain := make(resource.Input, len(in))
	for k, v := range in {
		switch k {
		case InputPassword, InputPasswordConfirmation:
		case domain.AttrEmail:
			if s, ok := v.(string); ok {
				v = strings.ToLower(strings.TrimSpace(s))
			}
			plain[k] = v
		case domain.AttrUsername:
			if s, ok := v.(string); ok {
				v = strings.TrimSpace(s)
			}
			plain[k] = v
		default:
			plain[k] = v
		}
	}
	if err := resource.AssignInput(ctx, def, r, plain); err != nil {
		return err
	}
	if r.GetString(domain.AttrTimezone) == "" {
		r.Set(domain.AttrTimezone, "UTC")
	}

	password := in.String(InputPassword)
	if password == "" || len(password) > MaxPasswordLength {
		return nil
	}
	digest, err := u.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	r.Set(domain.AttrPasswordDigest, digest)
	return nil
}

func (u *userAttributes) check(ctx context.Context, st store.EntityStore, r *domain.Record, in resource.Input) (*domain.ValidationErrors, error) {
	v := domain.NewValidationErrors()

	username := r.GetString(domain.AttrUsername)
	switch {
	case username == "":
		v.Add(domain.AttrUsername, "can't be blank")
	case strings.Contains(username, "@"):
		v.Add(domain.AttrUsername, "is invalid")
	default:
		inUse, err := taken(ctx, st, r, domain.AttrUsername, username)
		if err != nil {
			return nil, err
		}
		if inUse {
			v.Add(domain.AttrUsername, "is already in use")
		}
	}

	email := r.GetString(domain.AttrEmail)
	switch {
	case email == "":
		v.Add(domain.AttrEmail, "can't be blank")
	case u.validate.Var(email, "email") != nil:
		v.Add(domain.AttrEmail, "is invalid")
	default:
		inUse, err := taken(ctx, st, r, domain.AttrEmail, email)
		if err != nil {
			return nil, err
		}
		if inUse {
			v.Add(domain.AttrEmail, "is already in use")
		}
	}

	if tz := r.GetString(domain.AttrTimezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			v.Add(domain.AttrTimezone, "is not a valid time zone")
		}
	}

	CheckPassword(v, r, in)
	return v, nil
}

// CheckPassword validates the password fields of in. A password is required
// when the record has no digest yet; a supplied password needs a matching
// confirmation.
func CheckPassword(v *domain.ValidationErrors, r *domain.Record, in resource.Input) {
	password := in.String(InputPassword)
	if password == "" {
		if r.GetString(domain.AttrPasswordDigest) == "" {
			v.Add(InputPassword, "can't be blank")
		}
		return
	}
	if len(password) < MinPasswordLength {
		v.Add(InputPassword, fmt.Sprintf("is too short (minimum is %d characters)", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		v.Add(InputPassword, fmt.Sprintf("is too long (maximum is %d characters)", MaxPasswordLength))
	}
	switch confirmation := in.String(InputPasswordConfirmation); {
	case strings.TrimSpace(confirmation) == "":
		v.Add(InputPasswordConfirmation, "can't be blank")
	case confirmation != password:
		v.Add(InputPasswordConfirmation, "doesn't match Password")
	}
}

// taken reports whether another live user already holds value for attr.
func taken(ctx context.Context, st store.EntityStore, r *domain.Record, attr, value string) (bool, error) {
	scope := store.NewScope(r.Type).
		WhereEq(attr, value).
		Where(store.Predicate{Attribute: store.AttrID, Op: store.OpNotEq, Value: r.ID})
	n, err := st.Count(ctx, scope)
	if err != nil {
		return false, fmt.Errorf("failed to check %s uniqueness: %w", attr, err)
	}
	return n > 0, nil
}
