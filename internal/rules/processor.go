package rules

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

// DefaultExecuteTimeout bounds each command sent by a trigger rule.
const DefaultExecuteTimeout = 10 * time.Second

// Logger defines the logging interface used by the rules package.
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

// Option configures a Processor.
type Option func(*Processor)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithExecuteTimeout bounds commands sent by trigger rules.
func WithExecuteTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.executeTimeout = d
		}
	}
}

type compiled struct {
	name   string
	sensor string
	rule   rule
}

// Processor is a declarative Engine. Rules run in definition order and the
// first veto wins; later rules do not see a vetoed update.
//
// Thread Safety: Process may be called concurrently. Debounce windows are
// exact only when updates for one sensor are serialized, as the agent does.
type Processor struct {
	rules          []compiled
	logger         Logger
	now            func() time.Time
	executeTimeout time.Duration

	mu     sync.RWMutex
	agent  Context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor compiles defs. Unknown types and invalid parameters are
// returned as errors naming the offending rule.
func NewProcessor(defs []Definition, logger Logger, opts ...Option) (*Processor, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	p := &Processor{
		logger:         logger,
		now:            time.Now,
		executeTimeout: DefaultExecuteTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	for i, def := range defs {
		name := def.Name
		if name == "" {
			name = fmt.Sprintf("rule-%d", i+1)
		}
		build, ok := builders[strings.ToLower(def.Type)]
		if !ok {
			return nil, fmt.Errorf("%w: %q (rule %s)", ErrUnknownRuleType, def.Type, name)
		}
		r, err := build(def)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
		p.rules = append(p.rules, compiled{name: name, sensor: def.Sensor, rule: r})
	}

	return p, nil
}

// Len returns the number of rules.
func (p *Processor) Len() int {
	return len(p.rules)
}

// Start implements Engine.
func (p *Processor) Start(agent Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.rules {
		if r, ok := c.rule.(resetter); ok {
			r.reset()
		}
	}
	p.agent = agent
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.logger.Info("rule engine started", "rules", len(p.rules))
	return nil
}

// Stop implements Engine. It cancels and waits for commands sent by
// trigger rules.
func (p *Processor) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	p.agent, p.ctx, p.cancel = nil, nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	return nil
}

// Process implements Engine. Rules that keep per-sensor state only record
// an update once the whole chain has passed it.
func (p *Processor) Process(u *sensor.StateUpdate) {
	s := u.State()

	var matched []compiled
	for _, c := range p.rules {
		if c.sensor != "" && c.sensor != s.SensorName {
			continue
		}
		if !p.run(c, s) {
			p.logger.Debug("update vetoed by rule", "rule", c.name, "sensor_id", s.SensorID, "value", s.Value)
			u.Terminate()
			return
		}
		matched = append(matched, c)
	}

	for _, c := range matched {
		if r, ok := c.rule.(committer); ok {
			r.commit(p, s)
		}
	}
}

// run evaluates one rule. A panicking rule is logged and treated as a pass.
func (p *Processor) run(c compiled, s sensor.State) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("rule failed", "rule", c.name, "sensor_id", s.SensorID, "panic", r)
			ok = true
		}
	}()
	return c.rule.check(p, s)
}

// committedValue returns the agent's current value for a sensor.
func (p *Processor) committedValue(sensorID int) string {
	p.mu.RLock()
	agent := p.agent
	p.mu.RUnlock()

	if agent == nil {
		return sensor.UnknownValue
	}
	return agent.QueryValue(sensorID)
}

// execute sends a command on behalf of a trigger rule without blocking
// the pipeline.
func (p *Processor) execute(commandID int, arg string) {
	p.mu.RLock()
	agent, ctx := p.agent, p.ctx
	if agent == nil {
		p.mu.RUnlock()
		p.logger.Warn("trigger fired before rule engine start", "command_id", commandID)
		return
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, p.executeTimeout)
		defer cancel()

		if err := agent.Execute(ctx, commandID, arg); err != nil {
			p.logger.Error("trigger command failed", "command_id", commandID, "argument", arg, "error", err)
			return
		}
		p.logger.Debug("trigger command sent", "command_id", commandID, "argument", arg)
	}()
}
