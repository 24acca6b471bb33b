// Package predicate turns a partially populated example entity into an
// ordered list of equality and substring conditions for the repository.
package predicate
