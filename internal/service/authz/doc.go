// Package authz decides whether a principal may perform an action on a
// resource. Record-level decisions happen after a fetch; listing is restricted
// up front through a policy's visible scope.
package authz
