package rules

import (
	"context"

	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

// Context is the agent as seen by a rule engine.
//
// Its methods must not be called synchronously from Process for anything
// that could block for long; Process runs inline with sensor updates.
type Context interface {
	// QueryValue returns the committed value of a sensor, or
	// sensor.UnknownValue.
	QueryValue(sensorID int) string

	// QueryValueByName is QueryValue keyed by sensor name.
	QueryValueByName(name string) string

	// Execute sends arg to an executable command of the deployment.
	Execute(ctx context.Context, commandID int, arg string) error
}

// Engine processes proposed state updates.
type Engine interface {
	// Start hands the engine its agent context. Called before any Process.
	Start(ctx Context) error

	// Stop releases the engine. No Process calls follow until the next Start.
	Stop() error

	// Process inspects u and may call u.Terminate to veto it.
	Process(u *sensor.StateUpdate)
}

// Nop is an Engine that accepts every update.
type Nop struct{}

// Start implements Engine.
func (Nop) Start(Context) error { return nil }

// Stop implements Engine.
func (Nop) Stop() error { return nil }

// Process implements Engine.
func (Nop) Process(*sensor.StateUpdate) {}
