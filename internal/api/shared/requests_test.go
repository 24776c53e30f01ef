package shared

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
)

func TestDecodeJSON(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"alice"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "alice", target.Name)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
	assert.ErrorIs(t, DecodeJSON(req, &target), domain.ErrMalformedRequest)
}

type loginForm struct {
	Login string `validate:"required"`
}

type selfChecked struct{ called bool }

func (s *selfChecked) Validate() error {
	s.called = true
	return nil
}

func TestValidateRequest(t *testing.T) {
	assert.Error(t, ValidateRequest(loginForm{}))
	assert.NoError(t, ValidateRequest(loginForm{Login: "alice"}))

	custom := &selfChecked{}
	assert.NoError(t, ValidateRequest(custom))
	assert.True(t, custom.called)
}

func TestResourceAttributes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    map[string]any
		wantErr bool
	}{
		{
			name: "json api form",
			body: `{"data":{"type":"user","attributes":{"username":"alice"}}}`,
			want: map[string]any{"username": "alice"},
		},
		{
			name: "root key form",
			body: `{"user":{"username":"alice","role_ids":["r1"]}}`,
			want: map[string]any{"username": "alice", "role_ids": []any{"r1"}},
		},
		{
			name: "data without attributes falls back to root key",
			body: `{"data":{"type":"user"},"user":{"username":"bob"}}`,
			want: map[string]any{"username": "bob"},
		},
		{name: "missing root", body: `{"role":{"name":"x"}}`, wantErr: true},
		{name: "null root", body: `{"user":null}`, wantErr: true},
		{name: "root not an object", body: `{"user":"alice"}`, wantErr: true},
		{name: "not json", body: `user=alice`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			got, err := ResourceAttributes(req, "user")
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrMalformedRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
