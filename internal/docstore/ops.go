package docstore

import (
	"fmt"
	"reflect"
	"time"
)

// ResolveWrites expands the update sentinels against the document's current
// fields and returns the resulting field set. Both backends funnel their
// read-modify-write paths through here so sentinel semantics cannot drift.
func ResolveWrites(current, updates Fields) (Fields, error) {
	out := make(Fields, len(current)+len(updates))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range updates {
		switch op := v.(type) {
		case serverTimestamp:
			out[k] = time.Now().UTC().Format(time.RFC3339Nano)
		case fieldDelete:
			delete(out, k)
		case ArrayOp:
			arr, err := asArray(out[k])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			if op.Remove {
				out[k] = arrayRemove(arr, op.Values)
			} else {
				out[k] = arrayUnion(arr, op.Values)
			}
		default:
			out[k] = v
		}
	}
	return out, nil
}

func asArray(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("array op on non-array value %T", v)
	}
	return arr, nil
}

func arrayUnion(arr, values []any) []any {
	out := append([]any(nil), arr...)
	for _, v := range values {
		if !containsValue(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func arrayRemove(arr, values []any) []any {
	out := make([]any, 0, len(arr))
	for _, existing := range arr {
		if !containsValue(values, existing) {
			out = append(out, existing)
		}
	}
	return out
}

func containsValue(arr []any, v any) bool {
	for _, existing := range arr {
		if equalValue(existing, v) {
			return true
		}
	}
	return false
}

// equalValue compares with numeric tolerance: documents that round-tripped
// through JSON hold float64 where the caller may pass int.
func equalValue(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Matches reports whether the document satisfies every filter. Equality uses
// the same tolerant comparison as array ops; range comparisons require string
// values on both sides.
func Matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		got, ok := doc.Fields[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if !equalValue(got, f.Value) {
				return false
			}
		case OpGreaterOrEqual:
			gs, ws, ok := stringPair(got, f.Value)
			if !ok || gs < ws {
				return false
			}
		case OpLessOrEqual:
			gs, ws, ok := stringPair(got, f.Value)
			if !ok || gs > ws {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func stringPair(a, b any) (string, string, bool) {
	as, aok := a.(string)
	bs, bok := b.(string)
	return as, bs, aok && bok
}
