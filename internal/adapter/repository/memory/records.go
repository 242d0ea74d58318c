package memory

import (
	"sort"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
)

type itemRecord struct{ *domain.Item }

func (r itemRecord) Field(name string) (any, bool) {
	switch name {
	case query.FieldID:
		return r.ID, true
	case query.FieldTitle:
		return r.Title, true
	case query.FieldDescription:
		return r.Description, true
	case query.FieldTags:
		return r.Tags, true
	case query.FieldOwner:
		return r.OwnerID, true
	case query.FieldPrice:
		return r.Price, true
	case query.FieldItemType:
		return r.ItemType, true
	case query.FieldSizes:
		return r.Sizes, true
	}
	return nil, false
}

type userRecord struct{ *domain.User }

func (r userRecord) Field(name string) (any, bool) {
	switch name {
	case query.FieldID:
		return r.ID, true
	case query.FieldUsername:
		return r.Username, true
	case query.FieldName:
		return r.Name, true
	}
	return nil, false
}

type commentRecord struct{ *domain.Comment }

func (r commentRecord) Field(name string) (any, bool) {
	switch name {
	case query.FieldID:
		return r.ID, true
	case query.FieldPost:
		return r.PostID, true
	case query.FieldOwner:
		return r.OwnerID, true
	}
	return nil, false
}

// selectPage filters rows, orders them by id descending and applies the limit.
func selectPage[T any](rows []T, id func(T) domain.ID, rec func(T) query.Record, q query.Query) ([]T, error) {
	out := make([]T, 0)
	for _, row := range rows {
		ok, err := query.Match(q.Filter, rec(row))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return id(out[i]).Hex() > id(out[j]).Hex()
	})
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func countMatches[T any](rows []T, rec func(T) query.Record, p query.Predicate) (int64, error) {
	var n int64
	for _, row := range rows {
		ok, err := query.Match(p, rec(row))
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}
