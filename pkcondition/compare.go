package pkcondition

import "fmt"

// compare returns -1, 0, 1 if a<b, a==b, a>b respectively, following the
// teacher's pattern of a small tagged-comparator rather than reflection
// (see metadata.Value's comparator helpers): each primary key column uses
// one of a fixed set of physical types, so a type switch is exhaustive in
// practice and keeps the hot descent path allocation-free.
func compare(a, b any) (int, error) {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, fmt.Errorf("pkcondition: cannot compare int64 with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case uint64:
		bv, ok := b.(uint64)
		if !ok {
			return 0, fmt.Errorf("pkcondition: cannot compare uint64 with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, fmt.Errorf("pkcondition: cannot compare float64 with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("pkcondition: cannot compare string with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("pkcondition: unsupported key type %T", a)
	}
}
