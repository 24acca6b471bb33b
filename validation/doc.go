// Package validation turns validator rule failures into a map from JSON
// field path to an English message.
package validation
