// Package logging provides structured logging for the Gray Logic agent.
//
// This package wraps Go's standard log/slog package so that every
// component of the agent (deployment builder, sensors, rule engine,
// state store) logs with the same fields and format.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version, agent_id) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	sensorLog := logger.With("component", "sensor")
//	sensorLog.Warn("switch value not recognised", "sensor_id", 12, "raw", raw)
//
// Sensor polling runs continuously, so per-read messages belong at debug
// level. Warnings are reserved for data-quality problems an installer can fix.
package logging
