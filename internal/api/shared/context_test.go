package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	first := GetTraceID(SetTraceID(ctx))
	second := GetTraceID(SetTraceID(ctx))
	assert.Len(t, first, 2*TraceIDLength)
	assert.NotEqual(t, first, second)
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, PrincipalFrom(ctx))

	p := &domain.Principal{ID: "u1", Handle: "alice"}
	assert.Same(t, p, PrincipalFrom(WithPrincipal(ctx, p)))
}
