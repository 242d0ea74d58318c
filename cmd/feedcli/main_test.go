package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/Abdurahmanit/merchsy/internal/feedclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_PagesAndRenders(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/explore", r.URL.Path)
		calls.Add(1)
		if r.URL.Query().Get("lastId") == "" {
			_, _ = w.Write([]byte(`[{"_id":"b","title":"Zebra tee","price":5,"itemType":"shirt","tags":["a"],"owner":{"username":"ann"}},
				{"_id":"a","title":"Alpha cap","price":9,"itemType":"hat","tags":["b"],"owner":{"username":"bob"}}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := command()
	cmd.Writer = &out
	err := cmd.Run(context.Background(), []string{"merchsy-feed", "--server", srv.URL, "--pages", "0", "--sort", "title-asc"})
	require.NoError(t, err)

	// A short page ends the feed without another request.
	assert.EqualValues(t, 1, calls.Load())
	text := out.String()
	assert.Less(t, bytes.Index(out.Bytes(), []byte("Alpha cap")), bytes.Index(out.Bytes(), []byte("Zebra tee")))
	assert.Contains(t, text, "2 shown, 2 loaded")
	assert.NotContains(t, text, "more available")
}

func TestCommand_DrainsEveryFullServerPage(t *testing.T) {
	const total = 60
	ids := make([]string, total)
	for i := range ids {
		ids[i] = fmt.Sprintf("%024x", total-i)
	}

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		start := 0
		if last := r.URL.Query().Get("lastId"); last != "" {
			start = slices.Index(ids, last) + 1
		}
		end := min(start+feedclient.DefaultPageSize, total)
		page := make([]map[string]any, 0, end-start)
		for _, id := range ids[start:end] {
			page = append(page, map[string]any{"_id": id, "title": "item " + id, "price": 1, "itemType": "shirt"})
		}
		assert.NoError(t, json.NewEncoder(w).Encode(page))
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := command()
	cmd.Writer = &out
	require.NoError(t, cmd.Run(context.Background(), []string{"merchsy-feed", "--server", srv.URL, "--pages", "0"}))

	assert.EqualValues(t, 3, calls.Load())
	assert.Contains(t, out.String(), "60 shown, 60 loaded")
	assert.NotContains(t, out.String(), "more available")
}

func TestCommand_HasNoPageSizeFlag(t *testing.T) {
	cmd := command()
	cmd.Writer = &bytes.Buffer{}
	cmd.ErrWriter = &bytes.Buffer{}
	err := cmd.Run(context.Background(), []string{"merchsy-feed", "--page-size", "10"})
	assert.Error(t, err)
}

func TestCommand_ServerErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"authorization token is not provided"}`))
	}))
	defer srv.Close()

	cmd := command()
	cmd.Writer = &bytes.Buffer{}
	err := cmd.Run(context.Background(), []string{"merchsy-feed", "--server", srv.URL, "--feed", "following"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorization token is not provided")
}

func TestCommand_RejectsUnknownFeed(t *testing.T) {
	cmd := command()
	cmd.Writer = &bytes.Buffer{}
	err := cmd.Run(context.Background(), []string{"merchsy-feed", "--feed", "trending"})
	assert.Error(t, err)
}
