// Package main provides coverctl, the command line companion of coverartd.
//
// coverctl reads the same configuration as the server (CONFIG_FILE and
// environment variables, see package startup) and works directly on the
// library database:
//
//	coverctl index                       # record releases and tracks under MEDIA_DIR
//	coverctl get release 42 -s 300       # write release-42-300.jpg
//	coverctl scan /media/Artist/Album    # show cover candidates in preference order
//	coverctl warm --sizes 64,256,512     # render every release cover
//	coverctl warm --server http://coverart:8080
//	coverctl stats --server http://coverart:8080
//	coverctl version
//
// With --server, warm and stats talk to a running coverartd over HTTP with
// retries, so warming fills the server's cache rather than a local one.
//
// Logging defaults to warnings only; use --verbose or LOG_LEVEL to see more.
package main
