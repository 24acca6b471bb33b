// Package model defines the Company and Employee entities, their bun
// mapping, identity equality and the example-to-predicate translation.
package model
