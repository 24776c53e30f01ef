package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	r := NewRecord("users")
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "users", r.Type)
	assert.Equal(t, StateActive, r.State)
	assert.False(t, r.IsDiscarded())
}

func TestRecordCloneIsDeep(t *testing.T) {
	r := NewRecord("users")
	r.Set("username", "alice")
	r.SetRelated("roles", []string{"r1"})
	now := time.Now()
	r.Discard(now)

	c := r.Clone()
	c.Set("username", "bob")
	c.Relationships["roles"][0] = "r2"
	*c.DiscardedAt = now.Add(time.Hour)

	assert.Equal(t, "alice", r.GetString("username"))
	assert.Equal(t, []string{"r1"}, r.Related("roles"))
	require.NotNil(t, r.DiscardedAt)
	assert.True(t, r.DiscardedAt.Equal(now))
	assert.True(t, c.IsDiscarded())
}

func TestRecordGetString(t *testing.T) {
	r := &Record{}
	assert.Equal(t, "", r.GetString("missing"))
	r.Set("count", 3)
	assert.Equal(t, "3", r.GetString("count"))
	assert.Nil(t, r.Related("roles"))
}

func TestPrincipalFromRecord(t *testing.T) {
	assert.Nil(t, PrincipalFromRecord(nil))

	r := NewRecord("users")
	r.Set(AttrUsername, "alice")
	r.Set(AttrEmail, "alice@example.com")
	r.Set(AttrTimezone, "Asia/Kolkata")
	r.Set(AttrPasswordDigest, "digest")

	p := PrincipalFromRecord(r)
	require.NotNil(t, p)
	assert.Equal(t, r.ID, p.ID)
	assert.Equal(t, "alice", p.Handle)
	assert.Equal(t, "digest", p.PasswordDigest)
	assert.Equal(t, r.ID+"/alice/Asia/Kolkata", p.CacheIdentity())
}

func TestPrincipalLocation(t *testing.T) {
	var nilPrincipal *Principal
	assert.Equal(t, time.UTC, nilPrincipal.Location())
	assert.Equal(t, "anonymous", nilPrincipal.CacheIdentity())
	assert.Equal(t, time.UTC, (&Principal{Timezone: "Not/AZone"}).Location())
	assert.Equal(t, "Europe/Berlin", (&Principal{Timezone: "Europe/Berlin"}).Location().String())
}
