// Package domain contains the core entities and error taxonomy shared by every
// resource type: the generic Record, the authenticated Principal, and the
// sentinel errors that the API boundary maps to HTTP statuses.
package domain
