// Package query builds store-independent predicates and cursor pages for the
// marketplace feeds. Nothing here performs I/O; adapters translate a Query
// into their own filter language.
package query

import (
	"regexp"
	"strings"
)

// Field names shared by predicates and the storage adapters.
const (
	FieldID          = "_id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldTags        = "tags"
	FieldOwner       = "owner"
	FieldPrice       = "price"
	FieldItemType    = "item_type"
	FieldSizes       = "sizes"
	FieldPost        = "post"
	FieldUsername    = "username"
	FieldName        = "name"
)

type Op int

const (
	OpTrue Op = iota
	OpFalse
	OpEq
	OpIn
	OpAll
	OpRange
	OpRegex
	OpLess
	OpAnd
	OpOr
)

func (o Op) String() string {
	switch o {
	case OpTrue:
		return "true"
	case OpFalse:
		return "false"
	case OpEq:
		return "eq"
	case OpIn:
		return "in"
	case OpAll:
		return "all"
	case OpRange:
		return "range"
	case OpRegex:
		return "regex"
	case OpLess:
		return "lt"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	}
	return "unknown"
}

// Predicate is a node of a boolean condition tree over stored fields.
// The zero value is the always-true predicate.
type Predicate struct {
	Op       Op
	Field    string
	Value    any   // OpEq, OpLess
	Values   []any // OpIn, OpAll
	Min      *float64
	Max      *float64
	Pattern  string // OpRegex, already escaped, matched case-insensitively
	Children []Predicate
}

func True() Predicate  { return Predicate{Op: OpTrue} }
func False() Predicate { return Predicate{Op: OpFalse} }

func Eq(field string, v any) Predicate { return Predicate{Op: OpEq, Field: field, Value: v} }

func Less(field string, v any) Predicate { return Predicate{Op: OpLess, Field: field, Value: v} }

func In(field string, values []any) Predicate {
	return Predicate{Op: OpIn, Field: field, Values: values}
}

func ContainsAll(field string, values []any) Predicate {
	return Predicate{Op: OpAll, Field: field, Values: values}
}

// Contains matches fields holding term as a literal, case-insensitive substring.
func Contains(field, term string) Predicate {
	return Predicate{Op: OpRegex, Field: field, Pattern: regexp.QuoteMeta(term)}
}

func Or(children ...Predicate) Predicate {
	return Predicate{Op: OpOr, Children: children}
}

func (p Predicate) IsTrue() bool  { return p.Op == OpTrue }
func (p Predicate) IsFalse() bool { return p.Op == OpFalse }

// TextSearch ORs a substring match of term over fields. A blank term is the
// always-true predicate.
func TextSearch(term string, fields ...string) Predicate {
	term = strings.TrimSpace(term)
	if term == "" || len(fields) == 0 {
		return True()
	}
	if len(fields) == 1 {
		return Contains(fields[0], term)
	}
	children := make([]Predicate, 0, len(fields))
	for _, f := range fields {
		children = append(children, Contains(f, term))
	}
	return Or(children...)
}

// OwnerIn matches items owned by any of ownerIDs. An empty set matches nothing.
func OwnerIn[T any](ownerIDs []T) Predicate {
	if len(ownerIDs) == 0 {
		return False()
	}
	return In(FieldOwner, toAny(ownerIDs))
}

// Range is an inclusive numeric range; nil bounds are omitted.
func Range(field string, min, max *float64) Predicate {
	if min == nil && max == nil {
		return True()
	}
	return Predicate{Op: OpRange, Field: field, Min: min, Max: max}
}

// OneOf restricts a scalar field to values. No values means no constraint.
func OneOf(field string, values []string) Predicate {
	values = compact(values)
	if len(values) == 0 {
		return True()
	}
	return In(field, toAny(values))
}

// Tags requires every tag (all=true) or at least one tag of an array field.
func Tags(tags []string, all bool) Predicate {
	tags = compact(tags)
	if len(tags) == 0 {
		return True()
	}
	if all {
		return ContainsAll(FieldTags, toAny(tags))
	}
	return In(FieldTags, toAny(tags))
}

// All ANDs the non-trivial predicates. Always-true children are dropped and
// an always-false child makes the whole conjunction false.
func All(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		switch {
		case p.IsTrue():
			continue
		case p.IsFalse():
			return False()
		case p.Op == OpAnd:
			kept = append(kept, p.Children...)
		default:
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return True()
	case 1:
		return kept[0]
	}
	return Predicate{Op: OpAnd, Children: kept}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
