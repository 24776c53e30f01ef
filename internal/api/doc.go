// Package api exposes registered resources over HTTP. ResourceHandler serves
// the standard actions of one resource type and AuthHandler serves the
// authentication endpoints. Every failure is rendered once, by
// HandleAPIError.
package api
