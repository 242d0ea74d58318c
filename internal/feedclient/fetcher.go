package feedclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-success response from the feed service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feed request failed with status %d: %s", e.Status, e.Message)
}

// Retryable reports whether the server signalled a transient failure.
func (e *APIError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError
}

// HTTPFetcher reads feed pages from the REST API.
type HTTPFetcher struct {
	baseURL *url.URL
	client  *http.Client
	token   string
}

func NewHTTPFetcher(baseURL, token string, client *http.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{baseURL: u, client: client, token: token}, nil
}

var feedPaths = map[Kind]string{
	KindSearch:    "/posts/search",
	KindExplore:   "/posts/explore",
	KindFollowing: "/posts/following",
	KindUser:      "/posts/user",
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (Page, error) {
	path, ok := feedPaths[req.Kind]
	if !ok {
		return Page{}, fmt.Errorf("unknown feed %q", req.Kind)
	}
	u := *f.baseURL
	u.Path += path
	u.RawQuery = encodeRequest(req).Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if f.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s feed: %w", req.Kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return Page{}, fmt.Errorf("read %s feed: %w", req.Kind, err)
	}
	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &envelope)
		if envelope.Message == "" {
			envelope.Message = http.StatusText(resp.StatusCode)
		}
		return Page{}, &APIError{Status: resp.StatusCode, Message: envelope.Message}
	}
	return decodePage(req.Kind, body)
}

func encodeRequest(req Request) url.Values {
	v := url.Values{}
	if req.Cursor != "" {
		v.Set("lastId", req.Cursor)
	}
	f := req.Filters
	if q := strings.TrimSpace(f.Query); q != "" && req.Kind == KindSearch {
		v.Set("query", q)
	}
	if req.Kind != KindSearch && req.Kind != KindExplore {
		return v
	}
	if len(f.Tags) > 0 {
		v.Set("tags", strings.Join(f.Tags, ","))
		v.Set("tagsApply", string(f.mode()))
	}
	if f.MinPrice != nil {
		v.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		v.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if len(f.Types) > 0 {
		v.Set("types", strings.Join(f.Types, ","))
	}
	return v
}

// decodePage handles both response shapes: search wraps its items in an
// envelope, the other feeds return a bare array.
func decodePage(kind Kind, body []byte) (Page, error) {
	if kind != KindSearch {
		var items []Item
		if err := json.Unmarshal(body, &items); err != nil {
			return Page{}, fmt.Errorf("decode %s feed: %w", kind, err)
		}
		return Page{Items: items}, nil
	}

	var envelope struct {
		Success     bool   `json:"success"`
		Message     string `json:"message"`
		Posts       []Item `json:"posts"`
		ResultCount int64  `json:"resultCount"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Page{}, fmt.Errorf("decode search feed: %w", err)
	}
	if !envelope.Success {
		return Page{}, &APIError{Status: http.StatusOK, Message: envelope.Message}
	}
	return Page{Items: envelope.Posts, ResultCount: envelope.ResultCount}, nil
}
