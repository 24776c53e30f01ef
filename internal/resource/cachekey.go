package resource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// KeyParts are the ordered inputs of a collection fingerprint.
type KeyParts struct {
	ResourceType   string
	PageUpdatedAt  time.Time
	RelatedUpdated map[string]time.Time
	IDs            []string
	Includes       []string
	Fields         map[string][]string
	Principal      string
	Search         string
	Filters        []string
	RawPage        string
	RawPerPage     string
}

// Fingerprint hashes the parts with SHA-256. Each part is length-prefixed so
// no two distinct part lists serialize to the same byte stream.
func (k KeyParts) Fingerprint() string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(strconv.Itoa(len(s))))
		h.Write([]byte{':'})
		h.Write([]byte(s))
	}

	write(k.ResourceType)
	write(formatStamp(k.PageUpdatedAt))

	related := make([]string, 0, len(k.RelatedUpdated))
	for t := range k.RelatedUpdated {
		related = append(related, t)
	}
	sort.Strings(related)
	write(strconv.Itoa(len(related)))
	for _, t := range related {
		write(t)
		write(formatStamp(k.RelatedUpdated[t]))
	}

	write(strconv.Itoa(len(k.IDs)))
	for _, id := range k.IDs {
		write(id)
	}

	includes := NormalizedIncludes(k.Includes)
	write(strconv.Itoa(len(includes)))
	for _, inc := range includes {
		write(inc)
	}

	types := make([]string, 0, len(k.Fields))
	for t := range k.Fields {
		types = append(types, t)
	}
	sort.Strings(types)
	write(strconv.Itoa(len(types)))
	for _, t := range types {
		fields := append([]string(nil), k.Fields[t]...)
		sort.Strings(fields)
		write(t)
		write(strings.Join(fields, ","))
	}

	write(k.Principal)
	write(k.Search)
	write(strconv.Itoa(len(k.Filters)))
	for _, f := range k.Filters {
		write(f)
	}
	write(k.RawPage)
	write(k.RawPerPage)

	return hex.EncodeToString(h.Sum(nil))
}

// CollectionKeyParts gathers the fingerprint inputs of a rendered page.
// Related freshness is each included type's global maximum, so any change to
// an included type invalidates every page that includes it.
func CollectionKeyParts(
	ctx context.Context,
	st store.EntityStore,
	reg *Registry,
	def *Definition,
	page *Page,
	includes []string,
	q Query,
	p *domain.Principal,
) (KeyParts, error) {
	parts := KeyParts{
		ResourceType:   "api." + def.Type,
		RelatedUpdated: map[string]time.Time{},
		IDs:            make([]string, 0, len(page.Records)),
		Includes:       includes,
		Fields:         q.Fields,
		Principal:      p.CacheIdentity(),
		Search:         q.SearchTerm(),
		Filters:        AppliedFilters(def, q.Filter),
		RawPage:        strings.TrimSpace(q.Page),
		RawPerPage:     strings.TrimSpace(q.PerPage),
	}

	for _, r := range page.Records {
		parts.IDs = append(parts.IDs, r.ID)
		if r.UpdatedAt.After(parts.PageUpdatedAt) {
			parts.PageUpdatedAt = r.UpdatedAt
		}
	}

	types, err := reg.IncludedTypes(def, includes)
	if err != nil {
		return KeyParts{}, err
	}
	for _, t := range types {
		latest, err := st.MaxUpdatedAt(ctx, t)
		if err != nil {
			return KeyParts{}, err
		}
		parts.RelatedUpdated[t] = latest
	}
	return parts, nil
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
