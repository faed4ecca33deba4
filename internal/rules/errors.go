package rules

import "errors"

// Domain errors for the rules package.
var (
	// ErrUnknownRuleType is returned for an unrecognised rule type.
	ErrUnknownRuleType = errors.New("rules: unknown rule type")

	// ErrInvalidRule is returned when a rule's parameters are unusable.
	ErrInvalidRule = errors.New("rules: invalid rule")
)
