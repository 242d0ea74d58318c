package query

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Record exposes stored fields to Match. Array fields are returned as slices.
type Record interface {
	Field(name string) (any, bool)
}

// Match evaluates p against r with document-store semantics: scalar
// operators on an array field match when any element matches.
func Match(p Predicate, r Record) (bool, error) {
	switch p.Op {
	case OpTrue:
		return true, nil
	case OpFalse:
		return false, nil
	case OpAnd:
		for _, c := range p.Children {
			ok, err := Match(c, r)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OpOr:
		for _, c := range p.Children {
			ok, err := Match(c, r)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	v, ok := r.Field(p.Field)
	if !ok {
		return false, nil
	}
	elems := elements(v)

	switch p.Op {
	case OpEq:
		return anyElem(elems, func(e any) bool { return equal(e, p.Value) }), nil
	case OpLess:
		return anyElem(elems, func(e any) bool {
			c, ok := compare(e, p.Value)
			return ok && c < 0
		}), nil
	case OpIn:
		return anyElem(elems, func(e any) bool {
			for _, want := range p.Values {
				if equal(e, want) {
					return true
				}
			}
			return false
		}), nil
	case OpAll:
		for _, want := range p.Values {
			if !anyElem(elems, func(e any) bool { return equal(e, want) }) {
				return false, nil
			}
		}
		return true, nil
	case OpRange:
		return anyElem(elems, func(e any) bool {
			f, ok := toFloat(e)
			if !ok {
				return false
			}
			if p.Min != nil && f < *p.Min {
				return false
			}
			if p.Max != nil && f > *p.Max {
				return false
			}
			return true
		}), nil
	case OpRegex:
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return false, fmt.Errorf("query: bad pattern %q: %w", p.Pattern, err)
		}
		return anyElem(elems, func(e any) bool {
			s, ok := e.(string)
			return ok && re.MatchString(s)
		}), nil
	}
	return false, fmt.Errorf("query: unsupported operator %s", p.Op)
}

func elements(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}

func anyElem(elems []any, fn func(any) bool) bool {
	for _, e := range elems {
		if fn(e) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	c, ok := compare(a, b)
	return ok && c == 0
}

// hexer is implemented by object ids; equal-length lowercase hex orders
// the same way as the underlying bytes.
type hexer interface{ Hex() string }

// compare orders numbers numerically, strings lexically and object ids by
// their hex form.
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	if ha, ok := a.(hexer); ok {
		hb, ok := b.(hexer)
		if !ok {
			return 0, false
		}
		return strings.Compare(ha.Hex(), hb.Hex()), true
	}
	if reflect.TypeOf(a) == reflect.TypeOf(b) && reflect.ValueOf(a).Comparable() && a == b {
		return 0, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
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
	}
	return 0, false
}
