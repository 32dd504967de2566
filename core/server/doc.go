// Package server holds the HTTP server configuration.
//
// The serve command builds a Fiber application from this configuration. The API key,
// when set, is enforced by the auth middleware on every route except the health check.
package server
