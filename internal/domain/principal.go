package domain

import "time"

// Attribute names a user record must carry to act as a principal.
const (
	AttrUsername       = "username"
	AttrEmail          = "email"
	AttrTimezone       = "timezone"
	AttrPasswordDigest = "password_digest"
)

// Principal is the authenticated actor of a request.
type Principal struct {
	ID             string
	Handle         string
	Email          string
	Timezone       string
	PasswordDigest string `json:"-"`
}

// PrincipalFromRecord builds a principal from a user record. It returns nil for
// a nil record.
func PrincipalFromRecord(r *Record) *Principal {
	if r == nil {
		return nil
	}
	return &Principal{
		ID:             r.ID,
		Handle:         r.GetString(AttrUsername),
		Email:          r.GetString(AttrEmail),
		Timezone:       r.GetString(AttrTimezone),
		PasswordDigest: r.GetString(AttrPasswordDigest),
	}
}

// Location resolves the principal's timezone, falling back to UTC for a nil
// principal or an unknown zone name.
func (p *Principal) Location() *time.Location {
	if p == nil || p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CacheIdentity is the serializer-visible representation used in cache keys.
func (p *Principal) CacheIdentity() string {
	if p == nil {
		return "anonymous"
	}
	return p.ID + "/" + p.Handle + "/" + p.Timezone
}
