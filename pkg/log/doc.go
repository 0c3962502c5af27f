// Package log provides structured logging via zerolog: a package-level
// Logger configured once with log.Init, and WithComponent/WithGUID/
// WithWCID helpers for child loggers carrying the identifiers that thread
// through the persistence layer.
package log
