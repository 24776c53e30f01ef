// Package auth issues and verifies signed expiring tokens and hashes
// credentials.
//
// Tokens are HS256 JWTs. Session tokens carry the principal id and handle;
// reset tokens carry only the id and may be consumed once.
package auth
