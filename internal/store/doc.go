// Package store defines the persistence contract consumed by the resource
// pipeline: an immutable query Scope and the EntityStore interface that
// materializes it. Implementations live under internal/platform.
package store
