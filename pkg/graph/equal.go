package graph

// EqualNodes reports whether two nodes have identical content: same ID,
// type, label, and structurally equal Config.
func EqualNodes(a, b Node) bool {
	return a.ID == b.ID &&
		a.Type == b.Type &&
		a.Label == b.Label &&
		EqualConfig(a.Config, b.Config)
}

// EqualEdges reports whether two edges have identical content.
func EqualEdges(a, b Edge) bool {
	return a == b
}

// EqualConfig compares two config maps by deep structural equality.
// Key order is irrelevant; nil and empty maps are considered equal.
// Unknown or extra fields are compared like any other value - the engine
// never interprets config contents.
func EqualConfig(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !equalValue(av, bv) {
			return false
		}
	}
	return true
}

// equalValue compares two JSON-shaped values structurally.
// Numeric values are compared by magnitude so that int and float64
// representations of the same number (a common artifact of JSON and BSON
// round-trips) compare equal.
func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok {
			return false
		}
		return EqualConfig(av, bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	}

	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}

	return a == b
}

// asFloat normalizes numeric types to float64 for comparison.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
