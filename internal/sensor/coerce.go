package sensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the declared type of a sensor.
type Kind string

// Sensor kinds.
const (
	KindRange  Kind = "range"
	KindLevel  Kind = "level"
	KindSwitch Kind = "switch"
	KindCustom Kind = "custom"
)

// Switch values.
const (
	SwitchOn  = "on"
	SwitchOff = "off"
)

// Level bounds.
const (
	LevelMin = 0
	LevelMax = 100
)

// Property keys read by the coercers.
const (
	PropertyRangeMin = "range-min"
	PropertyRangeMax = "range-max"

	// StatePropertyPrefix prefixes state mapping properties: "state-on: 1"
	// maps the raw value "1" to the state name "on".
	StatePropertyPrefix = "state-"
)

// ParseKind validates a sensor type string.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindRange, KindLevel, KindSwitch, KindCustom:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Coercer turns a raw command value into the sensor's value contract.
// Coerce never fails; invalid input degrades to the kind's default.
type Coercer interface {
	Kind() Kind
	Coerce(raw string) string
}

// NewCoercer selects the coercer for kind, reading any properties it needs.
func NewCoercer(kind Kind, props map[string]string, logger Logger) (Coercer, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	switch kind {
	case KindSwitch:
		return &switchCoercer{states: stateTable(props, SwitchOn, SwitchOff), logger: logger}, nil
	case KindLevel:
		return levelCoercer{}, nil
	case KindRange:
		lo, err := intProperty(props, PropertyRangeMin)
		if err != nil {
			return nil, err
		}
		hi, err := intProperty(props, PropertyRangeMax)
		if err != nil {
			return nil, err
		}
		if lo > hi {
			return nil, fmt.Errorf("%w: %s %d is greater than %s %d",
				ErrInvalidProperty, PropertyRangeMin, lo, PropertyRangeMax, hi)
		}
		return rangeCoercer{}, nil
	case KindCustom:
		return newCustomCoercer(props), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
}

func intProperty(props map[string]string, key string) (int, error) {
	v, ok := props[key]
	if !ok || strings.TrimSpace(v) == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingProperty, key)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidProperty, key, v)
	}
	return n, nil
}

// stateTable builds a raw value -> state name lookup from state-* properties.
// When names is non-empty only those state names are accepted.
func stateTable(props map[string]string, names ...string) map[string]string {
	table := make(map[string]string)
	for key, raw := range props {
		if !strings.HasPrefix(key, StatePropertyPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, StatePropertyPrefix)
		if name == "" {
			continue
		}
		if len(names) > 0 {
			name = strings.ToLower(name)
			if !contains(names, name) {
				continue
			}
		}
		table[normalise(raw)] = name
	}
	return table
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func normalise(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

type switchCoercer struct {
	states map[string]string
	logger Logger
}

func (switchCoercer) Kind() Kind { return KindSwitch }

// Coerce takes "on" and "off" literally before consulting the state
// mappings, so coercing an already coerced value leaves it unchanged.
func (c *switchCoercer) Coerce(raw string) string {
	v := normalise(raw)
	if v == SwitchOn || v == SwitchOff {
		return v
	}
	if name, ok := c.states[v]; ok {
		return name
	}
	c.logger.Warn("switch sensor value is neither on nor off, using off", "raw", raw)
	return SwitchOff
}

type levelCoercer struct{}

func (levelCoercer) Kind() Kind { return KindLevel }

func (levelCoercer) Coerce(raw string) string {
	n, err := atoiSaturating(raw)
	if err != nil {
		return strconv.Itoa(LevelMin)
	}
	return strconv.Itoa(min(max(n, LevelMin), LevelMax))
}

// rangeCoercer requires bounds at construction but does not clamp.
type rangeCoercer struct{}

func (rangeCoercer) Kind() Kind { return KindRange }

func (rangeCoercer) Coerce(raw string) string {
	n, err := atoiSaturating(raw)
	if err != nil {
		return "0"
	}
	return strconv.Itoa(n)
}

// atoiSaturating is strconv.Atoi except that out of range integers yield
// the nearest representable value instead of an error.
func atoiSaturating(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) {
		return n, nil
	}
	return n, err
}

type customCoercer struct {
	states map[string]string
	names  map[string]bool
}

func newCustomCoercer(props map[string]string) customCoercer {
	c := customCoercer{states: stateTable(props), names: make(map[string]bool)}
	for _, name := range c.states {
		c.names[name] = true
	}
	return c
}

func (customCoercer) Kind() Kind { return KindCustom }

// Coerce returns state names unchanged and maps other raw values through
// the state table.
func (c customCoercer) Coerce(raw string) string {
	if c.names[raw] {
		return raw
	}
	if name, ok := c.states[normalise(raw)]; ok && raw != "" {
		return name
	}
	return raw
}
