// Package api exposes the staffing service over HTTP with gorilla/mux.
package api
