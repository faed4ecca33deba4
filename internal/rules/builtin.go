package rules

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

// rule is one compiled rule. check returns false to veto.
type rule interface {
	check(p *Processor, s sensor.State) bool
}

// committer is a rule that keeps state about accepted updates. commit
// runs only once every rule has passed the update.
type committer interface {
	commit(p *Processor, s sensor.State)
}

// resetter is a rule whose state is cleared when the engine starts.
type resetter interface {
	reset()
}

// ruleBuilder compiles a definition of one type.
type ruleBuilder func(def Definition) (rule, error)

var builders = map[string]ruleBuilder{
	TypeDeny:     buildDeny,
	TypeRange:    buildRange,
	TypeDebounce: buildDebounce,
	TypeTrigger:  buildTrigger,
}

type denyRule struct {
	values []string
}

func buildDeny(def Definition) (rule, error) {
	if len(def.Values) == 0 {
		return nil, fmt.Errorf("%w: deny rule needs values", ErrInvalidRule)
	}
	return &denyRule{values: slices.Clone(def.Values)}, nil
}

func (r *denyRule) check(_ *Processor, s sensor.State) bool {
	return !slices.Contains(r.values, s.Value)
}

type rangeRule struct {
	min, max *float64
}

func buildRange(def Definition) (rule, error) {
	if def.Min == nil && def.Max == nil {
		return nil, fmt.Errorf("%w: range rule needs min or max", ErrInvalidRule)
	}
	if def.Min != nil && def.Max != nil && *def.Min > *def.Max {
		return nil, fmt.Errorf("%w: range min %v is greater than max %v", ErrInvalidRule, *def.Min, *def.Max)
	}
	return &rangeRule{min: def.Min, max: def.Max}, nil
}

// check passes non-numeric values; other rules deal with those.
func (r *rangeRule) check(_ *Processor, s sensor.State) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s.Value), 64)
	if err != nil {
		return true
	}
	if r.min != nil && v < *r.min {
		return false
	}
	if r.max != nil && v > *r.max {
		return false
	}
	return true
}

type debounceRule struct {
	window time.Duration

	mu       sync.Mutex
	accepted map[int]time.Time
}

func buildDebounce(def Definition) (rule, error) {
	if def.Window <= 0 {
		return nil, fmt.Errorf("%w: debounce rule needs a positive window", ErrInvalidRule)
	}
	return &debounceRule{window: def.Window, accepted: make(map[int]time.Time)}, nil
}

// check lets the first value of each sensor through, and unknown
// placeholders always, so start-up is never delayed. The window starts
// when an update is committed, not when this rule passes it.
func (r *debounceRule) check(p *Processor, s sensor.State) bool {
	if s.IsUnknown() {
		return true
	}

	now := p.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	last, ok := r.accepted[s.SensorID]
	return !ok || now.Sub(last) >= r.window
}

func (r *debounceRule) commit(p *Processor, s sensor.State) {
	if s.IsUnknown() {
		return
	}

	now := p.now()
	r.mu.Lock()
	r.accepted[s.SensorID] = now
	r.mu.Unlock()
}

func (r *debounceRule) reset() {
	r.mu.Lock()
	clear(r.accepted)
	r.mu.Unlock()
}

type triggerRule struct {
	equals   string
	command  int
	argument string
}

func buildTrigger(def Definition) (rule, error) {
	if def.Equals == "" {
		return nil, fmt.Errorf("%w: trigger rule needs equals", ErrInvalidRule)
	}
	if def.Command == 0 {
		return nil, fmt.Errorf("%w: trigger rule needs a command", ErrInvalidRule)
	}
	return &triggerRule{equals: def.Equals, command: def.Command, argument: def.Argument}, nil
}

// check fires on transitions only: polling the same value again does not
// resend the command.
func (r *triggerRule) check(p *Processor, s sensor.State) bool {
	if s.Value == r.equals && p.committedValue(s.SensorID) != s.Value {
		p.execute(r.command, r.argument)
	}
	return true
}
