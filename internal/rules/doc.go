// Package rules arbitrates sensor state updates before they are committed.
//
// An Engine sees every proposed update from the agent's pipeline and may
// terminate it, which vetoes the change: the store keeps its previous
// value and no listener is notified. Engines may also react to updates by
// executing commands through the agent Context.
//
// Processor is the declarative engine configured from the deployment's
// rules section. Nop accepts everything.
package rules
