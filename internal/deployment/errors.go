package deployment

import "errors"

// Domain errors for the deployment package.
var (
	// ErrUnknownCommand is returned when a sensor references a command id
	// that is not defined.
	ErrUnknownCommand = errors.New("deployment: unknown command")

	// ErrNotSensorUpdate is returned when a sensor's command can neither
	// be polled nor pushed.
	ErrNotSensorUpdate = errors.New("deployment: command cannot update a sensor")

	// ErrMissingProperty is returned when a sensor lacks a property its type
	// requires, or the property is unusable.
	ErrMissingProperty = errors.New("deployment: missing sensor property")

	// ErrUnknownSensorType is returned for an unrecognised sensor type.
	ErrUnknownSensorType = errors.New("deployment: unknown sensor type")

	// ErrDeviceConflict is returned when one device name is used with two ids.
	ErrDeviceConflict = errors.New("deployment: device id conflict")

	// ErrDuplicateSensor is returned when two sensors share an id.
	ErrDuplicateSensor = errors.New("deployment: duplicate sensor id")

	// ErrInvalidDefinition is returned when a definition file cannot be parsed.
	ErrInvalidDefinition = errors.New("deployment: invalid definition")
)
