package command

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultProtocol is assumed for definitions without a protocol.
const DefaultProtocol = "virtual"

// Builder turns a command definition into a command.
type Builder interface {
	Build(def Definition) (Command, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(def Definition) (Command, error)

// Build implements Builder.
func (f BuilderFunc) Build(def Definition) (Command, error) {
	return f(def)
}

// ProtocolBuilder dispatches definitions to the builder registered for
// their protocol.
//
// Thread Safety: Register and Build may be called concurrently.
type ProtocolBuilder struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewProtocolBuilder creates an empty ProtocolBuilder.
func NewProtocolBuilder() *ProtocolBuilder {
	return &ProtocolBuilder{
		builders: make(map[string]Builder),
	}
}

// Register installs the builder for a protocol, replacing any previous one.
// Protocol names are case-insensitive.
func (p *ProtocolBuilder) Register(protocol string, b Builder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.builders[strings.ToLower(protocol)] = b
}

// Protocols returns the registered protocol names.
func (p *ProtocolBuilder) Protocols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.builders))
	for name := range p.builders {
		names = append(names, name)
	}
	return names
}

// Build implements Builder.
func (p *ProtocolBuilder) Build(def Definition) (Command, error) {
	protocol := strings.ToLower(def.Protocol)
	if protocol == "" {
		protocol = DefaultProtocol
	}

	p.mu.RLock()
	b, ok := p.builders[protocol]
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (command %d)", ErrUnsupportedProtocol, def.Protocol, def.ID)
	}

	cmd, err := b.Build(def)
	if err != nil {
		return nil, fmt.Errorf("building command %d (%s): %w", def.ID, def.Name, err)
	}
	return cmd, nil
}
