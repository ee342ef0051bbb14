// Package handlers provides the HTTP handlers of the cover server.
//
// Covers are served from /api/cover/{kind}/{id}, where kind is "track" or
// "release" and the optional size query parameter selects the width
// (default [DefaultCoverSize]). Every request for a valid width succeeds:
// unknown entities and missing artwork get the default cover. Responses
// carry X-Cover-Source (cache, embedded, directory or default) and the
// X-Cover-Cache hit or miss status.
//
// /api/cover/flush empties the cache and /api/cover/stats reports its
// counters. The package also provides health, readiness, liveness, version
// and Prometheus metrics endpoints.
package handlers
