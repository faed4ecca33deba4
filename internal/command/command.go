package command

import (
	"context"
	"strconv"
	"time"
)

// Well-known definition property keys shared by protocol implementations.
const (
	// PropertyCommand is the default command string (argument used when
	// Send is called with an empty value).
	PropertyCommand = "command"

	// PropertyPollingInterval overrides the polling interval for pull
	// commands. Accepts a Go duration ("2s") or plain milliseconds ("500").
	PropertyPollingInterval = "polling-interval"
)

// Definition describes one command as it appears in a deployment.
type Definition struct {
	ID         int               `yaml:"id"`
	DeviceID   int               `yaml:"device_id"`
	DeviceName string            `yaml:"device_name"`
	Name       string            `yaml:"name"`
	Protocol   string            `yaml:"protocol"`
	Properties map[string]string `yaml:"properties"`
}

// Property returns a definition property, or "" when unset.
func (d Definition) Property(key string) string {
	return d.Properties[key]
}

// Sensor is the view a command gets of the sensor it reads for.
//
// The same command may serve sensors of different types, so Pull
// implementations use Coerce to apply the requesting sensor's value
// contract to the raw protocol value.
type Sensor interface {
	ID() int
	Name() string
	Property(key string) string
	Coerce(raw string) string
}

// Command is the base of every built command.
type Command interface {
	Definition() Definition
}

// Executable commands accept a string argument and perform a write.
type Executable interface {
	Command
	Send(ctx context.Context, arg string) error
}

// Pull commands support an on-demand read for a sensor.
type Pull interface {
	Command
	Read(ctx context.Context, s Sensor) (string, error)
}

// Listener receives raw values from a Push command.
type Listener func(raw string)

// Push commands notify a listener when a value changes, without polling.
//
// Start must not block; the listener is invoked from the transport's own
// goroutine. Stop releases the subscription for that sensor.
type Push interface {
	Command
	Start(ctx context.Context, s Sensor, fn Listener) error
	Stop(s Sensor) error
}

// PollingIntervaler is implemented by pull commands that know how often
// they should be polled.
type PollingIntervaler interface {
	PollingInterval() time.Duration
}

// IsSensorUpdate reports whether c can feed a sensor, that is whether it
// implements Pull or Push.
func IsSensorUpdate(c Command) bool {
	switch c.(type) {
	case Pull, Push:
		return true
	default:
		return false
	}
}

// ParseInterval parses a polling interval property value. Plain integers
// are taken as milliseconds. Returns 0 for empty or invalid values.
func ParseInterval(v string) time.Duration {
	if v == "" {
		return 0
	}
	if ms, err := strconv.Atoi(v); err == nil {
		if ms <= 0 {
			return 0
		}
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}
