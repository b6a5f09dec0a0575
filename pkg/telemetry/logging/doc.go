// Package logging configures structured logging via log/slog.
//
// # Overview
//
// The logging package builds slog loggers from telemetry configuration:
//   - JSON or logfmt-style text output
//   - Configurable log levels (debug, info, warn, error)
//   - Credential redaction so OAuth tokens and issued API keys never
//     reach log output verbatim
//
// # Usage
//
//	// Install the configured logger as the process default
//	logger, err := logging.Setup(cfg.Telemetry.Logging)
//
//	// Components derive their own loggers from the default
//	log := slog.Default().With("component", "usage.poller")
//	log.Info("poll complete",
//	    "five_hour_pct", 42.0,
//	    "token", "Bearer eyJhbGci...",  // redacted before write
//	)
//
// # Redaction
//
// Attribute values logged under secret-bearing keys (password, token,
// secret, api_key, authorization, credential) are masked down to a
// four-character hint. String values are additionally scanned for
// bearer tokens, callisto- prefixed keys, and sk- keys.
package logging
