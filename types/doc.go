// Package types holds the shared enum contract and the error taxonomy used
// across the gateway, the service and the HTTP layer.
package types
