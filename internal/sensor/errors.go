package sensor

import "errors"

// Domain errors for the sensor package.
var (
	// ErrUnknownKind is returned for an unrecognised sensor type string.
	ErrUnknownKind = errors.New("sensor: unknown type")

	// ErrMissingProperty is returned when a property required by the sensor type is absent.
	ErrMissingProperty = errors.New("sensor: missing required property")

	// ErrInvalidProperty is returned when a property value cannot be parsed.
	ErrInvalidProperty = errors.New("sensor: invalid property")

	// ErrNotSensorUpdate is returned when the update command implements neither Pull nor Push.
	ErrNotSensorUpdate = errors.New("sensor: command cannot update a sensor")

	// ErrAlreadyRunning is returned when starting a running sensor.
	ErrAlreadyRunning = errors.New("sensor: already running")

	// ErrCommandPanic is returned when a pull command panics during a read.
	ErrCommandPanic = errors.New("sensor: command panicked")

	// ErrStopTimeout is returned when the polling goroutine does not exit in time.
	ErrStopTimeout = errors.New("sensor: timed out waiting for polling to stop")
)
