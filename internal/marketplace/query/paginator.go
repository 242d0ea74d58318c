package query

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageSize is the fixed number of results per feed page.
const PageSize = 25

var ErrInvalidCursor = errors.New("invalid lastId cursor")

// Query is a fully specified page request. Ordering is always by _id
// descending, so it is not configurable.
type Query struct {
	Filter Predicate
	Limit  int64
}

// SortField and SortDescending describe the fixed page ordering.
const (
	SortField      = FieldID
	SortDescending = true
)

// Page bounds p to identifiers strictly below lastID and limits the result to
// pageSize items. A nil lastID requests the first page.
func Page(p Predicate, lastID *primitive.ObjectID, pageSize int) Query {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	filter := p
	if lastID != nil {
		filter = All(p, Less(FieldID, *lastID))
	}
	return Query{Filter: filter, Limit: int64(pageSize)}
}

// ParseCursor validates the raw lastId parameter. An empty value means no
// cursor; anything that is not a 24-character hex id is rejected.
func ParseCursor(raw string) (*primitive.ObjectID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &id, nil
}
