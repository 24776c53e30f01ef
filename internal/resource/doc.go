// Package resource holds the generic machinery shared by every resource type:
// the definition and registry that describe a type, scope building and
// filtering, pagination, the collection cache key and JSON:API serialization.
//
// A resource type is data. Its Definition lists attributes, relationships,
// per-action configuration and the policy that guards it; nothing here knows
// about concrete types such as users or roles.
package resource
