package httpapi

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"

	"github.com/go-chi/chi/v5"
)

// parseItemFilter reads the optional server-side filters:
// tags, tagsApply, minPrice, maxPrice and types.
func parseItemFilter(q url.Values) (domain.ItemFilter, error) {
	var f domain.ItemFilter

	mode, err := domain.ParseTagMode(q.Get("tagsApply"))
	if err != nil {
		return f, invalid("tagsApply must be 'all' or 'any'")
	}
	f.TagsMode = mode
	f.Tags = lowerAll(splitList(q["tags"]))
	f.Types = lowerAll(splitList(q["types"]))

	if f.MinPrice, err = parsePrice(q.Get("minPrice"), "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parsePrice(q.Get("maxPrice"), "maxPrice"); err != nil {
		return f, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, invalid("minPrice must not exceed maxPrice")
	}
	return f, nil
}

func parsePrice(raw, name string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, invalid(name + " must be a non-negative number")
	}
	return &v, nil
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func lowerAll(values []string) []string {
	for i := range values {
		values[i] = strings.ToLower(values[i])
	}
	return values
}

func pathID(r *http.Request, name string) (domain.ID, error) {
	id, err := domain.ParseID(chi.URLParam(r, name))
	if err != nil {
		return id, invalid(name + " is not a valid identifier")
	}
	return id, nil
}
