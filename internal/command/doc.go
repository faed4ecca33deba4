// Package command defines the capability set of device commands used by
// the agent runtime.
//
// A command is built once per command definition by a pluggable Builder
// and may combine three orthogonal capabilities:
//
//   - Executable: one-shot write of a string argument (no return value)
//   - Pull: on-demand synchronous read on behalf of a requesting sensor
//   - Push: asynchronous notification of new raw values to a listener
//
// A command that implements Pull or Push can feed a sensor (see
// IsSensorUpdate). Protocol specifics (addresses, topics, wire formats)
// live in sub-packages such as virtual and mqttcmd; this package only
// carries the contracts, the protocol dispatching builder and the
// Commands registry of built commands.
package command
