// Package middleware provides HTTP middleware for the media bridge server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labeled by route template
//   - gzip compression of JSON and event stream responses
package middleware
