// Package domain implements the campaign location hierarchy.
//
// Locations form a per-campaign forest: every record carries an optional
// parent reference and the tree shape is derived at read time from the
// parent pointers, never cached. The service here owns the mutation
// algorithms (insert, policy-driven removal, bulk reparenting) and the
// read-side assembly of a location with its children and ancestor path.
package domain
