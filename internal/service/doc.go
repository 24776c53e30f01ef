// Package service contains the write-side use cases of the resource API.
//
// RecordService builds, validates, persists and deletes records of any
// registered resource type. It coordinates three collaborators:
//
//   - the resource Definition, which assigns input and validates records
//   - the EntityStore, which persists them
//   - the Registry, which knows which types reference which
//
// Deletion honors the definition's mode. Discarding sets the tagged state on
// the record; a hard delete is refused with domain.ErrConflictingDiscard while
// live records still reference the target.
//
// Subpackages auth and authz hold token issuance and the authorization gate.
package service
