// Package logging is the tracker's slog setup.
//
// Every entry carries service=tracker and the build version. The handler is
// JSON unless logging.format is "text", and entries below logging.level are
// dropped. Components derive a child logger with With("component", ...).
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("project tracker started", "address", addr)
//
// Credentials never reach the log. Auth failures record a reason code
// (malformed, bad_signature, expired, not_found, invalid_credentials) and
// at most the presented username:
//
//	log.Warn("bearer token rejected", "reason", "expired", "path", r.URL.Path)
//
// Tests build a logger over a buffer with NewWithWriter, or use Discard.
package logging
