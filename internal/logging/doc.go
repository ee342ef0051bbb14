// Package logging provides a simple leveled logging interface for the
// cover art service.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable and can
// be overridden at runtime with SetLevel. Components obtain a tagged logger
// with For:
//
//	var log = logging.For("cover")
//	log.Info("Max cache size = %d", max)
package logging
