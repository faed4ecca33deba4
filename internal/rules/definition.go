package rules

import "time"

// Rule types understood by Processor.
const (
	TypeDeny     = "deny"
	TypeRange    = "range"
	TypeDebounce = "debounce"
	TypeTrigger  = "trigger"
)

// Definition configures one rule. Which fields apply depends on Type.
type Definition struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// Sensor restricts the rule to one sensor by name. Empty means all.
	Sensor string `yaml:"sensor"`

	// deny: vetoed values.
	Values []string `yaml:"values"`

	// range: inclusive numeric bounds. Either may be omitted.
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`

	// debounce: minimum time between accepted changes.
	Window time.Duration `yaml:"window"`

	// trigger: when the value equals Equals, send Argument to Command.
	Equals   string `yaml:"equals"`
	Command  int    `yaml:"command"`
	Argument string `yaml:"argument"`
}
