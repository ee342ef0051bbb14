// Package main provides the entry point for the coverartd cover art server.
//
// coverartd serves JPEG cover art for the tracks and releases of a music
// library. Covers are looked up in an in-memory cache, then in the track's
// embedded pictures, then among the image files of the release directory,
// and finally fall back to a configured default image. Every rendition is
// resized to the requested width and cached.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT when present
//  2. Configuration Loading: Reads CONFIG_FILE and environment variables
//  3. Database Initialization: Opens the SQLite library database
//  4. Cover Service: Selects the imaging or libvips codec and loads the
//     default cover
//  5. Background Services: Metrics collector, database metrics refresh and,
//     when INDEX_INTERVAL is set, periodic library indexing
//  6. HTTP Servers: Main API server and optional metrics server
//  7. Graceful Shutdown: Handles SIGINT/SIGTERM and stops every component
//
// # HTTP Server
//
// The main server (default port 8080) exposes:
//
//   - GET|HEAD /api/cover/track/{id}?size=N
//   - GET|HEAD /api/cover/release/{id}?size=N
//   - GET /api/cover/stats
//   - POST /api/cover/flush
//   - /health, /healthz, /livez, /readyz, /version, /metrics
//
// The metrics server (default port 9090) serves /metrics and /health for
// scrapers that should not reach the API port.
//
// # Environment Variables
//
// See package startup for the full list. MEMORY_LIMIT and MEMORY_RATIO are
// described in package memory.
package main
