// Package middleware provides HTTP middleware for the cover server.
//
// It includes:
//   - Request IDs, accepted from or returned in X-Request-ID
//   - Request logging in W3C Extended Log Format, including the cover cache status
//   - Prometheus request metrics labelled by route template
package middleware
