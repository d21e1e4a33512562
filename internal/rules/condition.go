package rules

import (
	"fmt"
	"strings"

	"github.com/habitatworks/habitat-core/internal/telemetry"
)

// Evaluate resolves the condition's operand against the snapshot and
// applies the operator.
//
// Returns:
//   - bool: Whether the condition holds
//   - error: ErrUnknownOperator or ErrNotComparable; an error here is a
//     programming fault, never silently treated as false
func (c Condition) Evaluate(metrics telemetry.Metrics) (bool, error) {
	value := c.Operand.Resolve(metrics)

	switch c.Op {
	case OpGreaterThan:
		return compareNumeric(value, c.Threshold, func(a, b float64) bool { return a > b })
	case OpLessThan:
		return compareNumeric(value, c.Threshold, func(a, b float64) bool { return a < b })
	case OpEqual:
		return looseEqual(value, c.Threshold), nil
	case OpNotEqual:
		return !looseEqual(value, c.Threshold), nil
	case OpBetween:
		return between(value, c.Threshold, c.Threshold2)
	case OpNotBetween:
		ok, err := between(value, c.Threshold, c.Threshold2)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case OpContains:
		return contains(value, c.Threshold)
	case OpNotContains:
		ok, err := contains(value, c.Threshold)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case OpIsTrue:
		return truthy(value), nil
	case OpIsFalse:
		return !truthy(value), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, c.Op)
	}
}

// toFloat coerces the numeric types that appear in metrics, config, and
// decoded JSON to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}

func compareNumeric(value, threshold any, cmp func(a, b float64) bool) (bool, error) {
	a, aok := toFloat(value)
	b, bok := toFloat(threshold)
	if !aok || !bok {
		return false, fmt.Errorf("%w: %T vs %T", ErrNotComparable, value, threshold)
	}
	return cmp(a, b), nil
}

// between implements inclusive range membership.
func between(value, low, high any) (bool, error) {
	v, vok := toFloat(value)
	lo, lok := toFloat(low)
	hi, hok := toFloat(high)
	if !vok || !lok || !hok {
		return false, fmt.Errorf("%w: between on %T", ErrNotComparable, value)
	}
	return lo <= v && v <= hi, nil
}

// looseEqual compares numerically when both sides are numeric, falling
// back to direct equality for strings and bools.
func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
}

// contains implements membership: substring for strings, element
// membership for slices.
func contains(container, member any) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := member.(string)
		if !ok {
			return false, fmt.Errorf("%w: contains %T in string", ErrNotComparable, member)
		}
		return strings.Contains(c, s), nil
	case []string:
		s, ok := member.(string)
		if !ok {
			return false, fmt.Errorf("%w: contains %T in []string", ErrNotComparable, member)
		}
		for _, v := range c {
			if v == s {
				return true, nil
			}
		}
		return false, nil
	case []any:
		for _, v := range c {
			if looseEqual(v, member) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: contains on %T", ErrNotComparable, container)
	}
}

// truthy mirrors the reference truthiness semantics: false/0/""/nil are
// false, everything else is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		if f, ok := toFloat(v); ok {
			return f != 0
		}
		return true
	}
}
