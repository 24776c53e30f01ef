// Package resources declares the concrete resource types served by the API.
// Each type is plain data handed to the resource registry: its attributes,
// relationships, per-action configuration, policy, finder and validators.
package resources
