package mongodb

import (
	"fmt"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// matchNothing is a filter no document satisfies.
var matchNothing = bson.M{"_id": bson.M{"$in": bson.A{}}}

// toBSON translates a predicate tree into a Mongo filter document.
func toBSON(p query.Predicate) (bson.M, error) {
	switch p.Op {
	case query.OpTrue:
		return bson.M{}, nil
	case query.OpFalse:
		return matchNothing, nil
	case query.OpEq:
		return bson.M{p.Field: p.Value}, nil
	case query.OpLess:
		return bson.M{p.Field: bson.M{"$lt": p.Value}}, nil
	case query.OpIn:
		return bson.M{p.Field: bson.M{"$in": bson.A(p.Values)}}, nil
	case query.OpAll:
		return bson.M{p.Field: bson.M{"$all": bson.A(p.Values)}}, nil
	case query.OpRange:
		bounds := bson.M{}
		if p.Min != nil {
			bounds["$gte"] = *p.Min
		}
		if p.Max != nil {
			bounds["$lte"] = *p.Max
		}
		return bson.M{p.Field: bounds}, nil
	case query.OpRegex:
		return bson.M{p.Field: primitive.Regex{Pattern: p.Pattern, Options: "i"}}, nil
	case query.OpAnd, query.OpOr:
		children := make(bson.A, 0, len(p.Children))
		for _, c := range p.Children {
			m, err := toBSON(c)
			if err != nil {
				return nil, err
			}
			children = append(children, m)
		}
		key := "$and"
		if p.Op == query.OpOr {
			key = "$or"
		}
		return bson.M{key: children}, nil
	}
	return nil, fmt.Errorf("mongodb: unsupported predicate operator %s", p.Op)
}

// pageOptions applies the fixed newest-first order and the page limit.
func pageOptions(q query.Query) *options.FindOptions {
	dir := 1
	if query.SortDescending {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: query.SortField, Value: dir}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}
