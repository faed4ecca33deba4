package sensor

// UnknownValue is the value of a sensor that has not produced a reading yet.
const UnknownValue = "N/A"

// State is one reading of a sensor. It is a value type and never mutated.
type State struct {
	SensorID   int    `json:"sensor_id"`
	SensorName string `json:"sensor"`
	Value      string `json:"value"`
}

// Unknown returns the placeholder state for a sensor without a reading.
func Unknown(id int, name string) State {
	return State{SensorID: id, SensorName: name, Value: UnknownValue}
}

// Equal reports whether two states carry the same value for the same sensor.
func (s State) Equal(other State) bool {
	return s.SensorID == other.SensorID && s.Value == other.Value
}

// IsUnknown reports whether s is the unknown placeholder.
func (s State) IsUnknown() bool {
	return s.Value == UnknownValue
}

// StateUpdate is a proposed state change travelling through rule
// processing. Rules may terminate it, in which case it is not committed.
//
// A StateUpdate belongs to one pipeline invocation and is not safe for
// concurrent use.
type StateUpdate struct {
	state      State
	terminated bool
}

// NewStateUpdate wraps s for rule processing.
func NewStateUpdate(s State) *StateUpdate {
	return &StateUpdate{state: s}
}

// State returns the proposed state.
func (u *StateUpdate) State() State {
	return u.state
}

// Terminate vetoes the update.
func (u *StateUpdate) Terminate() {
	u.terminated = true
}

// Terminated reports whether a rule vetoed the update.
func (u *StateUpdate) Terminated() bool {
	return u.terminated
}
