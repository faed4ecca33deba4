// Package sensor implements the typed read endpoints of a deployment.
//
// A Sensor wraps exactly one update command (Pull or Push) and applies a
// value-coercion contract chosen at construction time:
//
//   - switch: "on" or "off", anything else degrades to "off"
//   - level: integer clamped to 0..100, "0" when unparseable
//   - range: integer passed through unchanged, "0" when unparseable
//   - custom: raw value (or its mapped state name) passed through
//
// Reads never fail. Command errors and malformed values degrade to the
// type's default and are logged, so one misbehaving device cannot
// destabilise the agent's update pipeline.
//
// Pull sensors poll their command on their own goroutine. Push sensors
// register a listener with the command and receive values on the
// transport's goroutine. Either way every produced State is delivered to
// the sink given to Start.
package sensor
