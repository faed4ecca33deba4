// Package mqttcmd implements the "mqtt" command protocol.
//
// A definition with a "topic" property publishes its argument to that
// topic. A definition with a "state-topic" property also feeds sensors:
// every message received on the state topic is pushed to the sensors
// started on the command. One broker subscription is shared by all of
// them and released when the last sensor stops.
package mqttcmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/nerrad567/gray-logic-agent/internal/command"
	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/mqtt"
)

// Protocol is the protocol name MQTT commands are registered under.
const Protocol = "mqtt"

// Definition property keys.
const (
	PropertyTopic      = "topic"
	PropertyStateTopic = "state-topic"
	PropertyQoS        = "qos"
	PropertyRetain     = "retain"
)

var (
	// ErrMissingTopic is returned when neither topic nor state-topic is set.
	ErrMissingTopic = errors.New("mqttcmd: topic or state-topic property is required")

	// ErrInvalidProperty is returned for unparsable qos or retain values.
	ErrInvalidProperty = errors.New("mqttcmd: invalid property")

	// ErrNotWritable is returned by Send on a command without a topic.
	ErrNotWritable = errors.New("mqttcmd: command has no topic to publish to")
)

// Client is the part of the MQTT client used by commands.
type Client interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the logging interface used for subscription problems.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Command publishes its argument to an MQTT topic.
type Command struct {
	def            command.Definition
	client         Client
	topic          string
	defaultCommand string
	qos            byte
	retain         bool
}

// Definition implements command.Command.
func (c *Command) Definition() command.Definition {
	return c.def
}

// Topic returns the publish topic, "" for read-only commands.
func (c *Command) Topic() string {
	return c.topic
}

// Send implements command.Executable. An empty arg sends the default
// command.
func (c *Command) Send(_ context.Context, arg string) error {
	if c.topic == "" {
		return fmt.Errorf("%w (command %d)", ErrNotWritable, c.def.ID)
	}
	if arg == "" {
		arg = c.defaultCommand
	}
	if err := c.client.Publish(c.topic, []byte(arg), c.qos, c.retain); err != nil {
		return fmt.Errorf("mqttcmd: sending command %d: %w", c.def.ID, err)
	}
	return nil
}

// StateCommand is a Command that also pushes state-topic messages to
// sensors.
//
// Thread Safety: Start and Stop may be called concurrently; listeners are
// invoked from the MQTT client's goroutine.
type StateCommand struct {
	*Command
	stateTopic string
	logger     Logger

	mu        sync.Mutex
	listeners map[int]command.Listener
}

// StateTopic returns the subscribed topic.
func (c *StateCommand) StateTopic() string {
	return c.stateTopic
}

// Start implements command.Push.
func (c *StateCommand) Start(_ context.Context, s command.Sensor, fn command.Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	first := len(c.listeners) == 0
	c.listeners[s.ID()] = fn
	if !first {
		return nil
	}

	if err := c.client.Subscribe(c.stateTopic, c.qos, c.deliver); err != nil {
		delete(c.listeners, s.ID())
		return fmt.Errorf("mqttcmd: subscribing command %d to %s: %w", c.def.ID, c.stateTopic, err)
	}
	return nil
}

// Stop implements command.Push.
func (c *StateCommand) Stop(s command.Sensor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.listeners[s.ID()]; !ok {
		return nil
	}
	delete(c.listeners, s.ID())
	if len(c.listeners) > 0 {
		return nil
	}

	if err := c.client.Unsubscribe(c.stateTopic); err != nil {
		return fmt.Errorf("mqttcmd: unsubscribing command %d from %s: %w", c.def.ID, c.stateTopic, err)
	}
	return nil
}

// Listeners returns the number of started sensors.
func (c *StateCommand) Listeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

func (c *StateCommand) deliver(topic string, payload []byte) error {
	c.mu.Lock()
	fns := make([]command.Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	if len(fns) == 0 {
		c.logger.Warn("mqtt state message without listeners", "command_id", c.def.ID, "topic", topic)
		return nil
	}

	raw := string(payload)
	for _, fn := range fns {
		fn(raw)
	}
	return nil
}

// New creates a command for def. It returns a *StateCommand when the
// definition has a state topic, a *Command otherwise.
func New(def command.Definition, client Client, defaultQoS byte, logger Logger) (command.Command, error) {
	topic := def.Property(PropertyTopic)
	stateTopic := def.Property(PropertyStateTopic)
	if topic == "" && stateTopic == "" {
		return nil, fmt.Errorf("%w (command %d)", ErrMissingTopic, def.ID)
	}

	qos := defaultQoS
	if v := def.Property(PropertyQoS); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 2 {
			return nil, fmt.Errorf("%w: qos %q (command %d)", ErrInvalidProperty, v, def.ID)
		}
		qos = byte(n)
	}

	var retain bool
	if v := def.Property(PropertyRetain); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: retain %q (command %d)", ErrInvalidProperty, v, def.ID)
		}
		retain = b
	}

	cmd := &Command{
		def:            def,
		client:         client,
		topic:          topic,
		defaultCommand: def.Property(command.PropertyCommand),
		qos:            qos,
		retain:         retain,
	}
	if stateTopic == "" {
		return cmd, nil
	}

	if logger == nil {
		logger = noopLogger{}
	}
	return &StateCommand{
		Command:    cmd,
		stateTopic: stateTopic,
		logger:     logger,
		listeners:  make(map[int]command.Listener),
	}, nil
}

// NewBuilder returns a builder producing MQTT commands on client.
func NewBuilder(client Client, defaultQoS byte, logger Logger) command.Builder {
	return command.BuilderFunc(func(def command.Definition) (command.Command, error) {
		return New(def, client, defaultQoS, logger)
	})
}
