package feedclient

import (
	"fmt"
	"slices"
	"strings"
)

// SortOrder is a render-time ordering. It never influences fetching.
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortTitleAsc  SortOrder = "title-asc"
	SortTitleDesc SortOrder = "title-desc"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortNewest, nil
	case SortNewest, SortTitleAsc, SortTitleDesc, SortPriceAsc, SortPriceDesc:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// Project returns the visible subset of items under f, ordered by order.
// items is never modified; calling Project twice yields the same result.
func Project(items []Item, f FilterState, order SortOrder) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if visible(it, f) {
			out = append(out, it)
		}
	}

	switch order {
	case SortTitleAsc:
		slices.SortStableFunc(out, func(a, b Item) int { return compareFold(a.Title, b.Title) })
	case SortTitleDesc:
		slices.SortStableFunc(out, func(a, b Item) int { return compareFold(b.Title, a.Title) })
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b Item) int { return compareFloat(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b Item) int { return compareFloat(b.Price, a.Price) })
	}
	return out
}

// visible applies the local filters. The free-text query is evaluated by
// the server only.
func visible(it Item, f FilterState) bool {
	if f.MinPrice != nil && it.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && it.Price > *f.MaxPrice {
		return false
	}
	if len(f.Types) > 0 && !containsFold(f.Types, it.ItemType) {
		return false
	}
	if len(f.Tags) == 0 {
		return true
	}
	if f.mode() == TagsAll {
		for _, t := range f.Tags {
			if !containsFold(it.Tags, t) {
				return false
			}
		}
		return true
	}
	for _, t := range f.Tags {
		if containsFold(it.Tags, t) {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	return slices.ContainsFunc(values, func(x string) bool { return strings.EqualFold(x, v) })
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
