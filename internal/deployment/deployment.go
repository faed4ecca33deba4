package deployment

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/command"
	"github.com/nerrad567/gray-logic-agent/internal/rules"
	"github.com/nerrad567/gray-logic-agent/internal/sensor"
	"github.com/nerrad567/gray-logic-agent/internal/statestore"
)

// ConfigPollingInterval is the deployment config key overriding the
// default polling interval.
const ConfigPollingInterval = "polling-interval"

// Logger defines the logging interface used by the deployment package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Option configures a Deployment.
type Option func(*Deployment)

// WithLogger sets the logger for the deployment and its sensors.
func WithLogger(l Logger) Option {
	return func(d *Deployment) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithPollInterval sets the default polling interval for pull sensors.
// The definition's polling-interval config entry takes precedence.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Deployment) {
		if interval > 0 {
			d.pollInterval = interval
		}
	}
}

// WithStopTimeout bounds how long each sensor's Stop waits for polling to end.
func WithStopTimeout(timeout time.Duration) Option {
	return func(d *Deployment) {
		if timeout > 0 {
			d.stopTimeout = timeout
		}
	}
}

// Deployment is the built topology of one agent.
//
// Thread Safety: immutable after New; all methods are safe for concurrent use.
type Deployment struct {
	config       map[string]string
	builder      command.Builder
	commands     *command.Commands
	handler      *statestore.Handler
	engine       rules.Engine
	devices      []*Device
	sensors      []*sensor.Sensor
	logger       Logger
	pollInterval time.Duration
	stopTimeout  time.Duration
}

// New builds a Deployment from def.
//
// Every command definition is built once through builder. Each sensor is
// bound to its update command, and each command definition is attached to
// its device. Any inconsistency fails construction with one of the package
// errors.
func New(def *Definition, builder command.Builder, handler *statestore.Handler, engine rules.Engine, opts ...Option) (*Deployment, error) {
	if def == nil {
		def = &Definition{}
	}
	if engine == nil {
		engine = rules.Nop{}
	}

	d := &Deployment{
		config:       maps.Clone(def.Config),
		builder:      builder,
		handler:      handler,
		engine:       engine,
		logger:       noopLogger{},
		pollInterval: sensor.DefaultPollInterval,
		stopTimeout:  sensor.DefaultStopTimeout,
	}
	if d.config == nil {
		d.config = make(map[string]string)
	}
	for _, opt := range opts {
		opt(d)
	}

	if v := d.config[ConfigPollingInterval]; v != "" {
		interval := command.ParseInterval(v)
		if interval <= 0 {
			return nil, fmt.Errorf("%w: config %s=%q", ErrInvalidDefinition, ConfigPollingInterval, v)
		}
		d.pollInterval = interval
	}

	commands, err := command.NewCommands(def.Commands, builder)
	if err != nil {
		return nil, fmt.Errorf("building commands: %w", err)
	}
	d.commands = commands

	for _, sd := range def.Sensors {
		if err := d.addSensor(sd); err != nil {
			return nil, err
		}
	}

	for _, cd := range def.Commands {
		if err := d.attachCommand(cd); err != nil {
			return nil, err
		}
	}

	d.logger.Info("deployment built",
		"devices", len(d.devices),
		"commands", d.commands.Len(),
		"sensors", len(d.sensors),
	)
	return d, nil
}

func (d *Deployment) addSensor(sd SensorDefinition) error {
	if _, exists := d.Sensor(sd.ID); exists {
		return fmt.Errorf("%w: %d", ErrDuplicateSensor, sd.ID)
	}

	cmd, ok := d.commands.Get(sd.Command)
	if !ok {
		return fmt.Errorf("%w: sensor %d (%s) references command %d", ErrUnknownCommand, sd.ID, sd.Name, sd.Command)
	}

	s, err := sensor.New(sd, cmd,
		sensor.WithLogger(d.logger),
		sensor.WithPollInterval(d.pollInterval),
		sensor.WithStopTimeout(d.stopTimeout),
	)
	if err != nil {
		return sensorError(err)
	}

	d.sensors = append(d.sensors, s)
	return nil
}

// sensorError maps sensor construction errors to deployment errors while
// keeping the original in the chain.
func sensorError(err error) error {
	switch {
	case errors.Is(err, sensor.ErrNotSensorUpdate):
		return fmt.Errorf("%w: %w", ErrNotSensorUpdate, err)
	case errors.Is(err, sensor.ErrUnknownKind):
		return fmt.Errorf("%w: %w", ErrUnknownSensorType, err)
	case errors.Is(err, sensor.ErrMissingProperty), errors.Is(err, sensor.ErrInvalidProperty):
		return fmt.Errorf("%w: %w", ErrMissingProperty, err)
	default:
		return err
	}
}

func (d *Deployment) attachCommand(cd command.Definition) error {
	dev, ok := d.Device(cd.DeviceName)
	if !ok {
		dev = &Device{ID: cd.DeviceID, Name: cd.DeviceName}
		d.devices = append(d.devices, dev)
	} else if dev.ID != cd.DeviceID {
		return fmt.Errorf("%w: device %q has id %d, command %d uses %d",
			ErrDeviceConflict, cd.DeviceName, dev.ID, cd.ID, cd.DeviceID)
	}
	dev.commands = append(dev.commands, cd)
	return nil
}

// Config returns a deployment config value, or "" when unset.
func (d *Deployment) Config(key string) string {
	return d.config[key]
}

// Builder returns the command builder the deployment was built with.
func (d *Deployment) Builder() command.Builder {
	return d.builder
}

// Commands returns the built command registry.
func (d *Deployment) Commands() *command.Commands {
	return d.commands
}

// StateHandler returns the sensor state store.
func (d *Deployment) StateHandler() *statestore.Handler {
	return d.handler
}

// RuleEngine returns the rule engine.
func (d *Deployment) RuleEngine() rules.Engine {
	return d.engine
}

// PollInterval returns the default polling interval handed to sensors.
func (d *Deployment) PollInterval() time.Duration {
	return d.pollInterval
}

// Devices returns all devices in the order first referenced.
func (d *Deployment) Devices() []*Device {
	out := make([]*Device, len(d.devices))
	copy(out, d.devices)
	return out
}

// Device returns the device with the given name.
func (d *Deployment) Device(name string) (*Device, bool) {
	for _, dev := range d.devices {
		if dev.Name == name {
			return dev, true
		}
	}
	return nil, false
}

// Sensors returns all sensors in definition order.
func (d *Deployment) Sensors() []*sensor.Sensor {
	out := make([]*sensor.Sensor, len(d.sensors))
	copy(out, d.sensors)
	return out
}

// Sensor returns the sensor with the given id.
func (d *Deployment) Sensor(id int) (*sensor.Sensor, bool) {
	for _, s := range d.sensors {
		if s.ID() == id {
			return s, true
		}
	}
	return nil, false
}

// SensorByName returns the first sensor with the given name.
func (d *Deployment) SensorByName(name string) (*sensor.Sensor, bool) {
	for _, s := range d.sensors {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// CommandDefinition returns the command definition with the given id.
func (d *Deployment) CommandDefinition(id int) (command.Definition, bool) {
	for _, dev := range d.devices {
		if cd, ok := dev.CommandDefinition(id); ok {
			return cd, true
		}
	}
	return command.Definition{}, false
}

// CommandDefinitionFor returns the command named name on the named device.
func (d *Deployment) CommandDefinitionFor(device, name string) (command.Definition, bool) {
	dev, ok := d.Device(device)
	if !ok {
		return command.Definition{}, false
	}
	return dev.CommandDefinitionByName(name)
}

// CommandDefinitionByName returns the first command with the given name on
// any device.
func (d *Deployment) CommandDefinitionByName(name string) (command.Definition, bool) {
	for _, dev := range d.devices {
		if cd, ok := dev.CommandDefinitionByName(name); ok {
			return cd, true
		}
	}
	return command.Definition{}, false
}
