// Package virtual provides an in-memory device simulator and the reference
// "virtual" command built on top of it.
//
// The simulator stands in for real hardware: writes store a value at an
// address and reads return the last value written there, coerced by the
// requesting sensor. Every command built with the same address shares the
// same slot. The Simulator is injected into the builder, so tests and
// separate agents never share state by accident.
package virtual

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/command"
)

// Protocol is the protocol name virtual commands are registered under.
const Protocol = "virtual"

// PropertyAddress is the definition property holding the simulator address.
const PropertyAddress = "address"

// ErrMissingAddress is returned when a virtual definition has no address.
var ErrMissingAddress = errors.New("virtual: address property is required")

// Simulator holds the last written value per address.
//
// Thread Safety: all methods are safe for concurrent use.
type Simulator struct {
	values sync.Map // address -> string
}

// NewSimulator creates an empty simulator.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Store sets the value at an address.
func (s *Simulator) Store(address, value string) {
	s.values.Store(address, value)
}

// Load returns the value at an address.
func (s *Simulator) Load(address string) (string, bool) {
	v, ok := s.values.Load(address)
	if !ok {
		return "", false
	}
	return v.(string), true //nolint:forcetypeassert // only strings are stored
}

// Command is an Executable and Pull command backed by a Simulator.
type Command struct {
	def            command.Definition
	address        string
	defaultCommand string
	interval       time.Duration
	sim            *Simulator
}

// New creates a virtual command for a definition.
func New(def command.Definition, sim *Simulator) (*Command, error) {
	address := def.Property(PropertyAddress)
	if address == "" {
		return nil, fmt.Errorf("%w (command %d)", ErrMissingAddress, def.ID)
	}
	return &Command{
		def:            def,
		address:        address,
		defaultCommand: def.Property(command.PropertyCommand),
		interval:       command.ParseInterval(def.Property(command.PropertyPollingInterval)),
		sim:            sim,
	}, nil
}

// NewBuilder returns a builder producing virtual commands on sim.
func NewBuilder(sim *Simulator) command.Builder {
	return command.BuilderFunc(func(def command.Definition) (command.Command, error) {
		return New(def, sim)
	})
}

// Definition implements command.Command.
func (c *Command) Definition() command.Definition {
	return c.def
}

// Address returns the simulator address this command reads and writes.
func (c *Command) Address() string {
	return c.address
}

// Send stores arg at the command's address, or the default command string
// when arg is empty.
func (c *Command) Send(_ context.Context, arg string) error {
	value := arg
	if value == "" {
		value = c.defaultCommand
	}
	c.sim.Store(c.address, value)
	return nil
}

// Read returns the stored value coerced by the requesting sensor.
// A never-written address reads as the empty string before coercion.
func (c *Command) Read(_ context.Context, s command.Sensor) (string, error) {
	raw, _ := c.sim.Load(c.address)
	return s.Coerce(raw), nil
}

// PollingInterval implements command.PollingIntervaler. Zero means the
// deployment default applies.
func (c *Command) PollingInterval() time.Duration {
	return c.interval
}
