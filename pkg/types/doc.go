// Package types defines the core types and interfaces shared across
// nixroots: the filesystem abstraction used by the registrar and the Root
// record reported by status queries.
package types
