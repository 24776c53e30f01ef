package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumar-mithlesh/headless-api/internal/config"
)

func TestFetchRendersOnceThenHits(t *testing.T) {
	c := New(config.CacheConfig{TTLSeconds: 60, Namespace: "test"}, nil)
	ctx := context.Background()

	calls := 0
	render := func() ([]byte, error) {
		calls++
		return []byte(`{"data":[]}`), nil
	}

	body, hit, err := c.Fetch(ctx, "k1", render)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.JSONEq(t, `{"data":[]}`, string(body))

	body, hit, err = c.Fetch(ctx, "k1", render)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.JSONEq(t, `{"data":[]}`, string(body))
	assert.Equal(t, 1, calls)

	_, hit, err = c.Fetch(ctx, "k2", render)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, c.Len())

	c.Flush()
	assert.Zero(t, c.Len())
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c := New(config.CacheConfig{TTLSeconds: 60}, nil)
	boom := errors.New("render failed")

	_, _, err := c.Fetch(context.Background(), "k", func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())
	assert.Equal(t, DefaultNamespace, c.namespace)
}

func TestEntriesExpire(t *testing.T) {
	c := New(config.CacheConfig{TTLSeconds: 1}, nil)
	c.ttl = 20 * time.Millisecond

	_, _, err := c.Fetch(context.Background(), "k", func() ([]byte, error) { return []byte("a"), nil })
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, hit, err := c.Fetch(context.Background(), "k", func() ([]byte, error) { return []byte("b"), nil })
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestConcurrentFillsAgree(t *testing.T) {
	c := New(config.CacheConfig{TTLSeconds: 60}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _, err := c.Fetch(context.Background(), "same", func() ([]byte, error) {
				return []byte("payload"), nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "payload", string(body))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
