package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrInvalidCursor, http.StatusBadRequest},
		{invalid("bad"), http.StatusBadRequest},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("get item: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrDuplicateAccount, http.StatusConflict},
		{domain.ErrAlreadyFollowing, http.StatusConflict},
		{domain.ErrNotFollowing, http.StatusConflict},
		{fmt.Errorf("find: %w: %w", domain.ErrUnavailable, errors.New("socket closed")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestParseItemFilter(t *testing.T) {
	q := url.Values{
		"tags":      {"Retro, cotton", "wool"},
		"tagsApply": {"ALL"},
		"minPrice":  {"1.5"},
		"maxPrice":  {"20"},
		"types":     {"Shirt,hat"},
	}
	f, err := parseItemFilter(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"retro", "cotton", "wool"}, f.Tags)
	assert.Equal(t, domain.TagsAll, f.TagsMode)
	assert.Equal(t, []string{"shirt", "hat"}, f.Types)
	require.NotNil(t, f.MinPrice)
	require.NotNil(t, f.MaxPrice)
	assert.Equal(t, 1.5, *f.MinPrice)
	assert.Equal(t, 20.0, *f.MaxPrice)

	empty, err := parseItemFilter(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, domain.TagsAny, empty.TagsMode)
	assert.Empty(t, empty.Tags)
	assert.Nil(t, empty.MinPrice)
	assert.Nil(t, empty.MaxPrice)

	for _, bad := range []url.Values{
		{"tagsApply": {"most"}},
		{"minPrice": {"NaN"}},
		{"maxPrice": {"-3"}},
		{"minPrice": {"9"}, "maxPrice": {"3"}},
	} {
		_, err := parseItemFilter(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad.Encode())
	}
}
