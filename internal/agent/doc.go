// Package agent runs a deployment.
//
// Context owns the lifecycle (stopped, starting, running, stopping) and
// the single-writer update pipeline every sensor feeds into:
//
//	sensor goroutine -> Update -> rules.Engine.Process -> statestore.Handler.Put
//
// Updates are serialised behind one mutex, so rule evaluation and commit
// happen atomically per update and never interleave with a lifecycle
// transition. Updates arriving while the agent is stopping or stopped are
// dropped.
//
// Stop is tolerant of partial failure: every shutdown step runs even when
// an earlier one fails, and the failures are returned joined.
package agent
