package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kumar-mithlesh/headless-api/internal/domain"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

var validate = validator.New()

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedRequest, err)
	}
	return nil
}

// ValidateRequest validates v with its struct tags, or with its own
// Validate method when it has one.
func ValidateRequest(v any) error {
	if custom, ok := v.(interface{ Validate() error }); ok {
		return custom.Validate()
	}
	return validate.Struct(v)
}

// ResourceAttributes reads the attribute object of a resource body. Both the
// JSON:API form {"data":{"attributes":{...}}} and the root-key form
// {"<root>":{...}} are accepted; a body with neither is malformed.
func ResourceAttributes(r *http.Request, root string) (map[string]any, error) {
	var body map[string]json.RawMessage
	if err := DecodeJSON(r, &body); err != nil {
		return nil, err
	}

	if raw, ok := body["data"]; ok {
		var data struct {
			Attributes map[string]any `json:"attributes"`
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("%w: data: %v", domain.ErrMalformedRequest, err)
		}
		if data.Attributes != nil {
			return data.Attributes, nil
		}
	}

	if raw, ok := body[root]; ok {
		var attrs map[string]any
		if err := json.Unmarshal(raw, &attrs); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedRequest, root, err)
		}
		if attrs != nil {
			return attrs, nil
		}
	}

	return nil, fmt.Errorf("%w: %w", domain.ErrMalformedRequest, errMissingRoot(root))
}

func errMissingRoot(root string) error {
	return errors.New("param is missing or the value is empty: " + root)
}
