package command

import (
	"context"
	"fmt"
	"sort"
)

// Commands is the registry of built commands, keyed by definition id.
//
// It is populated once while a deployment is constructed and is read-only
// afterwards, so concurrent reads need no locking.
type Commands struct {
	byID map[int]Command
}

// NewCommands builds every definition exactly once.
//
// Returns ErrDuplicateCommand when two definitions share an id, or the
// builder's error for the first definition that fails.
func NewCommands(defs []Definition, b Builder) (*Commands, error) {
	c := &Commands{byID: make(map[int]Command, len(defs))}

	for _, def := range defs {
		if _, exists := c.byID[def.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateCommand, def.ID)
		}
		cmd, err := b.Build(def)
		if err != nil {
			return nil, err
		}
		if cmd == nil {
			return nil, fmt.Errorf("%w: builder returned no command for %d", ErrInvalidDefinition, def.ID)
		}
		c.byID[def.ID] = cmd
	}

	return c, nil
}

// Get returns the command with the given id.
func (c *Commands) Get(id int) (Command, bool) {
	cmd, ok := c.byID[id]
	return cmd, ok
}

// Len returns the number of commands.
func (c *Commands) Len() int {
	return len(c.byID)
}

// IDs returns all command ids in ascending order.
func (c *Commands) IDs() []int {
	ids := make([]int, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Execute sends arg to the command with the given id.
func (c *Commands) Execute(ctx context.Context, id int, arg string) error {
	cmd, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrCommandNotFound, id)
	}
	exec, ok := cmd.(Executable)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotExecutable, id)
	}
	return exec.Send(ctx, arg)
}
