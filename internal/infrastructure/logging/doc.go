// Package logging configures log/slog for sensoradmin.
//
// The logging section of config.yaml picks level (debug, info, warn,
// error), format (json or text) and output (stdout or stderr):
//
//	logging:
//	  level: info
//	  format: json
//	  output: stdout
//
// Components derive child loggers rather than building their own:
//
//	log := logging.New(cfg.Logging, version)
//	apiLog := log.With("component", "api")
//	apiLog.Warn("websocket client lagging", "username", name)
//
// Passwords, JWT secrets and access tokens are never logged.
package logging
