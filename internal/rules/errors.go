package rules

import (
	"errors"
	"fmt"
)

// Domain errors for the rules package.
var (
	// ErrRuleNotFound is returned when a rule ID does not exist.
	ErrRuleNotFound = errors.New("rules: not found")

	// ErrRuleExists is returned when adding a rule with a duplicate ID.
	ErrRuleExists = errors.New("rules: already exists")

	// ErrUnknownOperator indicates a condition carries an operator the
	// engine does not recognise. This is a programming error: it fails
	// the evaluation loudly rather than degrading to a silent false.
	ErrUnknownOperator = errors.New("rules: unknown operator")

	// ErrUnknownAction is returned when binding a stored rule whose
	// action name has no registered callback.
	ErrUnknownAction = errors.New("rules: unknown action")

	// ErrNotComparable is returned when an operator is applied to
	// values it cannot compare (e.g. GT on a string).
	ErrNotComparable = errors.New("rules: values not comparable")
)

func unknownActionError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownAction, name)
}
