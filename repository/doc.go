// Package repository implements the generic Bun backed persistence gateway
// with optimistic versioning and dialect aware condition rendering.
package repository
