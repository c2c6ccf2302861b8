// internal/rules/operators.go
package rules

import (
	"encoding/json"
	"math/big"
)

/*
 * Scalar comparison for KeyEquals leaves.
 *
 * Strings, numbers and booleans compare by value; null equals null. Values
 * of differing scalar types are never equal ("5" != 5, true != 1). Maps and
 * lists never compare equal, not even to themselves.
 *
 * Numeric comparison: handles json.Number (or float64) from events against
 * int/int64/uint64/float64 from YAML filter values. Integers compare exactly,
 * so ids beyond 2^53 do not collide with their float neighbours.
 */

// compareEqual performs scalar equality with numeric type coercion.
func compareEqual(a, b any) bool {
	if ia, ib, ok := asIntegers(a, b); ok {
		return ia.Cmp(ib) == 0
	}
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	if !isScalar(a) || !isScalar(b) {
		return false
	}
	return a == b
}

// isScalar reports whether v is a JSON/YAML scalar (including null).
func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, json.Number, float64, float32, int, int64, uint64:
		return true
	default:
		return false
	}
}

// asNumbers attempts to convert both values to float64 for numeric comparison.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

// toFloat64 converts value to float64 if it's a numeric type.
// Handles float64 from JSON and int/int64/uint64 from YAML.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// asIntegers converts both values to exact integers when both are integral.
func asIntegers(a, b any) (*big.Int, *big.Int, bool) {
	ia, oka := toBigInt(a)
	if !oka {
		return nil, nil, false
	}
	ib, okb := toBigInt(b)
	return ia, ib, okb
}

// toBigInt accepts integer kinds and json.Number literals written without
// a fraction or exponent.
func toBigInt(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case json.Number:
		return new(big.Int).SetString(string(n), 10)
	default:
		return nil, false
	}
}
