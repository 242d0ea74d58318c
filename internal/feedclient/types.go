// Package feedclient consumes the paginated feed endpoints the way an
// infinite-scroll view does: one owned Controller per feed view.
package feedclient

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind names a feed endpoint.
type Kind string

const (
	KindSearch    Kind = "search"
	KindExplore   Kind = "explore"
	KindFollowing Kind = "following"
	KindUser      Kind = "user"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSearch, KindExplore, KindFollowing, KindUser:
		return k, nil
	}
	return "", fmt.Errorf("unknown feed %q", s)
}

type Owner struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type Item struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	Tags        []string  `json:"tags"`
	ItemType    string    `json:"itemType"`
	Sizes       []string  `json:"sizes"`
	Owner       Owner     `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Page is one server response. ResultCount is only reported by search.
type Page struct {
	Items       []Item
	ResultCount int64
}

type TagMode string

const (
	TagsAny TagMode = "any"
	TagsAll TagMode = "all"
)

// FilterState is the user's current filter selection. Any change to it
// restarts the feed from the first page.
type FilterState struct {
	Query     string
	Tags      []string
	TagsApply TagMode
	MinPrice  *float64
	MaxPrice  *float64
	Types     []string
}

func (f FilterState) Equal(o FilterState) bool {
	return strings.TrimSpace(f.Query) == strings.TrimSpace(o.Query) &&
		f.mode() == o.mode() &&
		slices.Equal(f.Tags, o.Tags) &&
		slices.Equal(f.Types, o.Types) &&
		equalBound(f.MinPrice, o.MinPrice) &&
		equalBound(f.MaxPrice, o.MaxPrice)
}

func (f FilterState) mode() TagMode {
	if f.TagsApply == TagsAll {
		return TagsAll
	}
	return TagsAny
}

func (f FilterState) clone() FilterState {
	f.Tags = slices.Clone(f.Tags)
	f.Types = slices.Clone(f.Types)
	if f.MinPrice != nil {
		v := *f.MinPrice
		f.MinPrice = &v
	}
	if f.MaxPrice != nil {
		v := *f.MaxPrice
		f.MaxPrice = &v
	}
	return f
}

func equalBound(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Request describes a single page fetch.
type Request struct {
	Kind    Kind
	Cursor  string
	Filters FilterState
}

// Fetcher loads one page of a feed.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Page, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req Request) (Page, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) (Page, error) { return f(ctx, req) }
