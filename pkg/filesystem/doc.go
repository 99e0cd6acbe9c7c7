// Package filesystem provides filesystem implementations for nixroots.
//
// This package contains the OS-backed implementation of the types.FS
// interface used by the root registrar.
package filesystem
