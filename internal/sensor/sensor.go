package sensor

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/command"
)

// Defaults for sensor activity.
const (
	DefaultPollInterval = time.Second
	DefaultStopTimeout  = 5 * time.Second
)

// Logger defines the logging interface used by the sensor package.
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

// Definition describes one sensor as it appears in a deployment.
type Definition struct {
	ID         int               `yaml:"id"`
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Command    int               `yaml:"command"`
	Properties map[string]string `yaml:"properties"`
}

// Option configures a Sensor.
type Option func(*Sensor)

// WithLogger sets the sensor's logger.
func WithLogger(l Logger) Option {
	return func(s *Sensor) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPollInterval sets the fallback polling interval, used when neither
// the sensor nor its command define one.
func WithPollInterval(d time.Duration) Option {
	return func(s *Sensor) {
		if d > 0 {
			s.defaultInterval = d
		}
	}
}

// WithStopTimeout bounds how long Stop waits for the polling goroutine.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Sensor) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}

// Sensor is a typed read endpoint over one update command.
//
// Identity, kind, properties and command are fixed at construction.
// Only the running state changes afterwards.
//
// Thread Safety: all methods are safe for concurrent use.
type Sensor struct {
	id      int
	name    string
	props   map[string]string
	coercer Coercer
	cmd     command.Command
	logger  Logger

	defaultInterval time.Duration
	stopTimeout     time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	pushMu sync.Mutex
	pushed string
}

// New builds a sensor for def backed by cmd.
//
// Returns ErrNotSensorUpdate if cmd implements neither Pull nor Push,
// ErrUnknownKind for an unrecognised type, and ErrMissingProperty or
// ErrInvalidProperty when the type's required properties are unusable.
func New(def Definition, cmd command.Command, opts ...Option) (*Sensor, error) {
	if cmd == nil || !command.IsSensorUpdate(cmd) {
		return nil, fmt.Errorf("%w: sensor %d (%s)", ErrNotSensorUpdate, def.ID, def.Name)
	}

	kind, err := ParseKind(def.Type)
	if err != nil {
		return nil, fmt.Errorf("sensor %d (%s): %w", def.ID, def.Name, err)
	}

	s := &Sensor{
		id:              def.ID,
		name:            def.Name,
		props:           maps.Clone(def.Properties),
		cmd:             cmd,
		logger:          noopLogger{},
		defaultInterval: DefaultPollInterval,
		stopTimeout:     DefaultStopTimeout,
	}
	if s.props == nil {
		s.props = make(map[string]string)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = loggerWith(s.logger, "sensor_id", s.id, "sensor", s.name)

	s.coercer, err = NewCoercer(kind, s.props, s.logger)
	if err != nil {
		return nil, fmt.Errorf("sensor %d (%s): %w", def.ID, def.Name, err)
	}

	return s, nil
}

// fieldLogger prepends fixed attributes to every record.
type fieldLogger struct {
	next   Logger
	fields []any
}

func loggerWith(l Logger, fields ...any) Logger {
	return fieldLogger{next: l, fields: fields}
}

func (f fieldLogger) with(args []any) []any {
	return append(append(make([]any, 0, len(f.fields)+len(args)), f.fields...), args...)
}

func (f fieldLogger) Debug(msg string, args ...any) { f.next.Debug(msg, f.with(args)...) }
func (f fieldLogger) Info(msg string, args ...any)  { f.next.Info(msg, f.with(args)...) }
func (f fieldLogger) Warn(msg string, args ...any)  { f.next.Warn(msg, f.with(args)...) }
func (f fieldLogger) Error(msg string, args ...any) { f.next.Error(msg, f.with(args)...) }

// ID returns the sensor id.
func (s *Sensor) ID() int { return s.id }

// Name returns the sensor name.
func (s *Sensor) Name() string { return s.name }

// Kind returns the sensor type. It panics on a Sensor not built by New.
func (s *Sensor) Kind() Kind {
	return s.mustCoercer().Kind()
}

// Property returns a sensor property, or "" when unset.
func (s *Sensor) Property(key string) string {
	return s.props[key]
}

// Properties returns a copy of the sensor's properties.
func (s *Sensor) Properties() map[string]string {
	return maps.Clone(s.props)
}

// Command returns the update command.
func (s *Sensor) Command() command.Command {
	return s.cmd
}

// Coerce applies the sensor's value contract to a raw value.
func (s *Sensor) Coerce(raw string) string {
	return s.mustCoercer().Coerce(raw)
}

// mustCoercer panics when the sensor has no coercer. That only happens for
// a zero Sensor, which is a programming error rather than bad device data.
func (s *Sensor) mustCoercer() Coercer {
	if s.coercer == nil {
		panic(fmt.Sprintf("sensor: %d (%s) has no value coercer", s.id, s.name))
	}
	return s.coercer
}

// PollInterval returns the effective polling interval: the sensor's
// polling-interval property, else the command's own interval, else the
// fallback given at construction.
func (s *Sensor) PollInterval() time.Duration {
	if d := command.ParseInterval(s.props[command.PropertyPollingInterval]); d > 0 {
		return d
	}
	if pi, ok := s.cmd.(command.PollingIntervaler); ok {
		if d := pi.PollingInterval(); d > 0 {
			return d
		}
	}
	return s.defaultInterval
}

// Read returns the current coerced value. It never fails: a command error
// or panic is logged and the type's default is returned.
//
// Values from pull commands are coerced again, so a command that skips
// coercion still yields a valid value. Push-only sensors return the last
// pushed value.
func (s *Sensor) Read(ctx context.Context) string {
	c := s.mustCoercer()

	pull, ok := s.cmd.(command.Pull)
	if !ok {
		s.pushMu.Lock()
		raw := s.pushed
		s.pushMu.Unlock()
		return c.Coerce(raw)
	}

	value, err := s.pull(ctx, pull)
	if err != nil {
		s.logger.Warn("sensor read failed", "command_id", s.cmd.Definition().ID, "error", err)
		return c.Coerce("")
	}
	return c.Coerce(value)
}

// pull reads the command, turning a panic into ErrCommandPanic.
func (s *Sensor) pull(ctx context.Context, pull command.Pull) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pull command panicked", "command_id", s.cmd.Definition().ID, "panic", r)
			value, err = "", fmt.Errorf("%w: %v", ErrCommandPanic, r)
		}
	}()
	return pull.Read(ctx, s)
}

// receive handles one pushed value. A panic while coercing or delivering
// is logged and the value dropped so the command's delivery goroutine
// survives.
func (s *Sensor) receive(raw string, sink func(State)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pushed value dropped after panic", "raw", raw, "panic", r)
		}
	}()

	s.pushMu.Lock()
	s.pushed = raw
	s.pushMu.Unlock()
	sink(State{SensorID: s.id, SensorName: s.name, Value: s.Coerce(raw)})
}

// State reads the sensor and wraps the value.
func (s *Sensor) State(ctx context.Context) State {
	return State{SensorID: s.id, SensorName: s.name, Value: s.Read(ctx)}
}

// IsRunning reports whether the sensor is polling or subscribed.
func (s *Sensor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start begins producing states into sink. Push commands are subscribed;
// otherwise a polling goroutine reads immediately and then every
// PollInterval until Stop.
//
// sink may block; a slow sink only delays this sensor.
func (s *Sensor) Start(sink func(State)) error {
	s.mustCoercer()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("%w: %d", ErrAlreadyRunning, s.id)
	}

	ctx, cancel := context.WithCancel(context.Background())

	if push, ok := s.cmd.(command.Push); ok {
		err := push.Start(ctx, s, func(raw string) {
			s.receive(raw, sink)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("subscribing sensor %d: %w", s.id, err)
		}
		s.cancel = cancel
		s.done = nil
		s.running = true
		s.logger.Debug("sensor subscribed")
		return nil
	}

	done := make(chan struct{})
	interval := s.PollInterval()
	go s.poll(ctx, interval, sink, done)

	s.cancel = cancel
	s.done = done
	s.running = true
	s.logger.Debug("sensor polling started", "interval", interval)
	return nil
}

func (s *Sensor) poll(ctx context.Context, interval time.Duration, sink func(State), done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st := s.State(ctx)
		if ctx.Err() != nil {
			return
		}
		sink(st)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop ends polling or the push subscription. For polling sensors it waits
// up to the stop timeout for the goroutine to exit; on timeout the
// goroutine is abandoned and ErrStopTimeout returned. Stopping a stopped
// sensor is a no-op.
func (s *Sensor) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	cancel()

	if push, ok := s.cmd.(command.Push); ok {
		if err := push.Stop(s); err != nil {
			return fmt.Errorf("unsubscribing sensor %d: %w", s.id, err)
		}
		s.logger.Debug("sensor unsubscribed")
		return nil
	}

	select {
	case <-done:
		s.logger.Debug("sensor polling stopped")
		return nil
	case <-time.After(s.stopTimeout):
		s.logger.Warn("sensor polling did not stop in time", "timeout", s.stopTimeout)
		return fmt.Errorf("%w: sensor %d", ErrStopTimeout, s.id)
	}
}
