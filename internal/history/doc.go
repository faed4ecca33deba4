// Package history persists committed sensor state changes to SQLite.
//
// Recorder is registered as a statestore listener, so only real changes
// are written. Rows older than the configured retention are removed by
// PruneHistory, which the agent runs periodically.
package history
