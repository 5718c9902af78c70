// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (errors.go, watchparty.go, comment.go, relay.go)
// with shared types and cross-cutting interfaces. No implementation code beyond small
// constructors - just contracts. Interfaces live on the consumer side to prevent circular imports.
package domain
