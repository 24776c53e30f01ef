// Package mocks provides hand-written test doubles for the service and store
// interfaces. Each mock exposes one function field per method; a nil field
// falls back to the mock's default values.
//
//	tokens := &mocks.MockTokenService{
//	    VerifyPurposeFn: func(ctx context.Context, token string, p auth.Purpose) (*auth.Claims, error) {
//	        return &auth.Claims{SubjectID: "u1", Purpose: p}, nil
//	    },
//	}
package mocks
