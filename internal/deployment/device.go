package deployment

import "github.com/nerrad567/gray-logic-agent/internal/command"

// Device groups the command definitions addressed to one physical device.
type Device struct {
	ID       int
	Name     string
	commands []command.Definition
}

// CommandDefinitions returns the device's command definitions in
// definition order.
func (d *Device) CommandDefinitions() []command.Definition {
	out := make([]command.Definition, len(d.commands))
	copy(out, d.commands)
	return out
}

// CommandDefinition returns the device's command with the given id.
func (d *Device) CommandDefinition(id int) (command.Definition, bool) {
	for _, c := range d.commands {
		if c.ID == id {
			return c, true
		}
	}
	return command.Definition{}, false
}

// CommandDefinitionByName returns the device's command with the given name.
func (d *Device) CommandDefinitionByName(name string) (command.Definition, bool) {
	for _, c := range d.commands {
		if c.Name == name {
			return c, true
		}
	}
	return command.Definition{}, false
}
