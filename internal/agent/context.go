package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/nerrad567/gray-logic-agent/internal/audit"
	"github.com/nerrad567/gray-logic-agent/internal/deployment"
	"github.com/nerrad567/gray-logic-agent/internal/rules"
	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

// ErrNoDeployment is returned by New without a deployment.
var ErrNoDeployment = errors.New("agent: deployment is required")

// Logger defines the logging interface used by the agent.
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

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the agent's logger.
func WithLogger(l Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// Auditor records lifecycle transitions and command executions.
type Auditor interface {
	Record(ctx context.Context, log *audit.AuditLog)
}

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, *audit.AuditLog) {}

// WithAuditor sets the audit trail.
func WithAuditor(a Auditor) Option {
	return func(c *Context) {
		if a != nil {
			c.auditor = a
		}
	}
}

// Context is a running agent: one deployment plus its live state.
//
// Thread Safety: all methods are safe for concurrent use. Update and the
// query methods are mutually exclusive with each other and with lifecycle
// flag changes.
type Context struct {
	id         string
	deployment *deployment.Deployment
	logger     Logger
	auditor    Auditor

	// lifecycle serialises Start and Stop.
	lifecycle sync.Mutex

	// mu guards the flags below and serialises Update and queries.
	mu           sync.Mutex
	running      bool
	shuttingDown bool
}

// New creates a stopped agent for d.
func New(id string, d *deployment.Deployment, opts ...Option) (*Context, error) {
	if d == nil {
		return nil, ErrNoDeployment
	}
	c := &Context{
		id:         id,
		deployment: d,
		logger:     noopLogger{},
		auditor:    noopAuditor{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ID returns the agent identifier.
func (c *Context) ID() string {
	return c.id
}

// Deployment returns the agent's deployment.
func (c *Context) Deployment() *deployment.Deployment {
	return c.deployment
}

// IsRunning reports whether the agent accepts updates.
func (c *Context) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start brings the agent up: the state handler, then the rule engine, then
// every sensor. Each sensor's state is set to unknown before the sensor
// starts, so queries never see a missing entry while running.
//
// Start is a no-op while a shutdown is in progress or when already
// running. A failing handler or rule engine aborts Start; a failing sensor
// is logged and skipped.
//
// Sensors deliver as soon as they start, so updates from sensors started
// earlier are processed while later sensors are still being started. A
// sensor's unknown placeholder is always committed before its own first
// update.
func (c *Context) Start(ctx context.Context) error {
	if c.stopping() {
		c.logger.Warn("start requested during shutdown, ignoring", "agent_id", c.id)
		return nil
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.IsRunning() {
		return nil
	}

	handler := c.deployment.StateHandler()
	engine := c.deployment.RuleEngine()

	if err := handler.Start(ctx); err != nil {
		return fmt.Errorf("starting state handler: %w", err)
	}
	if err := engine.Start(ruleContext{c}); err != nil {
		if stopErr := handler.Stop(); stopErr != nil {
			c.logger.Error("stopping state handler after failed start", "error", stopErr)
		}
		return fmt.Errorf("starting rule engine: %w", err)
	}

	c.mu.Lock()
	c.running = true
	c.mu.Unlock()

	sensors := c.deployment.Sensors()
	for _, s := range sensors {
		handler.Put(sensor.Unknown(s.ID(), s.Name()))
		if err := s.Start(c.Update); err != nil {
			c.logger.Error("sensor failed to start", "sensor_id", s.ID(), "sensor", s.Name(), "error", err)
		}
	}

	c.logger.Info("agent started", "agent_id", c.id, "sensors", len(sensors))
	c.auditor.Record(ctx, &audit.AuditLog{
		Action:     audit.ActionStart,
		EntityType: audit.EntityAgent,
		EntityID:   c.id,
		Source:     audit.SourceAgent,
		Details:    map[string]any{"sensors": len(sensors)},
	})
	return nil
}

// Stop tears the agent down in reverse order: rule engine, sensors, state
// handler. Updates are rejected from the moment Stop begins. Every step
// runs regardless of earlier failures; failures are logged and returned
// joined.
func (c *Context) Stop() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.shuttingDown = true
	c.mu.Unlock()

	// mu is not held here: sensor goroutines blocked in Update must be able
	// to finish so their Stop can return.
	var errs []error
	errs = c.step(errs, "rule engine", c.deployment.RuleEngine().Stop)
	for _, s := range c.deployment.Sensors() {
		errs = c.step(errs, fmt.Sprintf("sensor %d (%s)", s.ID(), s.Name()), s.Stop)
	}
	errs = c.step(errs, "state handler", c.deployment.StateHandler().Stop)

	c.mu.Lock()
	c.shuttingDown = false
	c.mu.Unlock()

	c.logger.Info("agent stopped", "agent_id", c.id, "failures", len(errs))
	c.auditor.Record(context.Background(), &audit.AuditLog{
		Action:     audit.ActionStop,
		EntityType: audit.EntityAgent,
		EntityID:   c.id,
		Source:     audit.SourceAgent,
		Details:    map[string]any{"failures": len(errs)},
	})
	return errors.Join(errs...)
}

// step runs one shutdown step, converting a panic into an error.
func (c *Context) step(errs []error, name string, fn func() error) []error {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn()
	}()
	if err != nil {
		c.logger.Error("shutdown step failed", "step", name, "error", err)
		return append(errs, fmt.Errorf("stopping %s: %w", name, err))
	}
	return errs
}

func (c *Context) stopping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shuttingDown
}

// Update proposes a new sensor state. The rule engine may veto it;
// otherwise it is committed to the state handler. Updates are dropped
// while the agent is not running and for sensors not in the deployment.
func (c *Context) Update(s sensor.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shuttingDown || !c.running {
		c.logger.Debug("dropping update, agent not running", "sensor_id", s.SensorID)
		return
	}
	if _, ok := c.deployment.Sensor(s.SensorID); !ok {
		c.logger.Debug("dropping update for unknown sensor", "sensor_id", s.SensorID)
		return
	}

	u := sensor.NewStateUpdate(s)
	c.process(u)
	if u.Terminated() {
		c.logger.Debug("update vetoed", "sensor_id", s.SensorID, "value", s.Value)
		return
	}

	c.deployment.StateHandler().Put(s)
}

// process runs the rule engine. A panicking engine is logged and the
// update proceeds.
func (c *Context) process(u *sensor.StateUpdate) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("rule engine panicked", "sensor_id", u.State().SensorID, "panic", r)
		}
	}()
	c.deployment.RuleEngine().Process(u)
}

// QueryValue returns the committed value of a sensor, or
// sensor.UnknownValue when there is none.
func (c *Context) QueryValue(sensorID int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value(sensorID)
}

// QueryValueByName is QueryValue keyed by sensor name. Unknown names yield
// sensor.UnknownValue.
func (c *Context) QueryValueByName(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valueByName(name)
}

// QueryState returns the committed state of a sensor.
func (c *Context) QueryState(sensorID int) (sensor.State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deployment.StateHandler().Get(sensorID)
}

// QueryStateByName is QueryState keyed by sensor name.
func (c *Context) QueryStateByName(name string) (sensor.State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.deployment.SensorByName(name)
	if !ok {
		return sensor.State{}, false
	}
	return c.deployment.StateHandler().Get(s.ID())
}

// Execute sends arg to an executable command of the deployment.
func (c *Context) Execute(ctx context.Context, commandID int, arg string) error {
	return c.execute(ctx, commandID, arg, audit.SourceAgent)
}

func (c *Context) execute(ctx context.Context, commandID int, arg, source string) error {
	err := c.deployment.Commands().Execute(ctx, commandID, arg)

	details := map[string]any{"argument": arg}
	if err != nil {
		details["error"] = err.Error()
	}
	c.auditor.Record(ctx, &audit.AuditLog{
		Action:     audit.ActionCommand,
		EntityType: audit.EntityCommand,
		EntityID:   strconv.Itoa(commandID),
		Source:     source,
		Details:    details,
	})
	return err
}

func (c *Context) value(sensorID int) string {
	if s, ok := c.deployment.StateHandler().Get(sensorID); ok {
		return s.Value
	}
	return sensor.UnknownValue
}

func (c *Context) valueByName(name string) string {
	s, ok := c.deployment.SensorByName(name)
	if !ok {
		return sensor.UnknownValue
	}
	return c.value(s.ID())
}

// ruleContext is the agent as seen from inside Update. Rules run while mu
// is held, so its queries read the handler directly.
type ruleContext struct {
	c *Context
}

var _ rules.Context = ruleContext{}

func (r ruleContext) QueryValue(sensorID int) string { return r.c.value(sensorID) }

func (r ruleContext) QueryValueByName(name string) string { return r.c.valueByName(name) }

func (r ruleContext) Execute(ctx context.Context, commandID int, arg string) error {
	return r.c.execute(ctx, commandID, arg, audit.SourceRule)
}
