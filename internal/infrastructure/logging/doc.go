// Package logging wraps log/slog with the defaults every Lumina component
// shares: a service/version pair on each entry, JSON or text output, and
// level filtering configured from config.yaml.
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("autopilot started", "profiles", n)
//
// Domain packages declare their own narrow Logger interfaces and accept
// anything satisfying them; *logging.Logger does via its embedded
// *slog.Logger. Never log credentials or tokens.
package logging
