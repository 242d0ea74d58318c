package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"
	"github.com/Abdurahmanit/merchsy/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubAuth struct {
	id  domain.ID
	err error
}

func (stubAuth) HashPassword(string) (string, error) { return "", nil }
func (stubAuth) VerifyCredentials(string, string) error { return nil }
func (stubAuth) IssueToken(domain.ID) (string, error) { return "", nil }
func (s stubAuth) VerifyToken(string) (domain.ID, error) { return s.id, s.err }

func echoUser(w http.ResponseWriter, r *http.Request) {
	if id, ok := UserID(r.Context()); ok {
		_, _ = w.Write([]byte(id.Hex()))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
}

func TestJWTAuth(t *testing.T) {
	id := primitive.NewObjectID()
	valid := stubAuth{id: id}
	invalid := stubAuth{err: errors.New("bad token")}

	tests := []struct {
		name   string
		auth   stubAuth
		header string
		status int
		body   string
	}{
		{"without token", valid, "", http.StatusUnauthorized, ""},
		{"valid bearer", valid, "Bearer abc", http.StatusOK, id.Hex()},
		{"lowercase scheme", valid, "bearer abc", http.StatusOK, id.Hex()},
		{"wrong scheme", valid, "Basic abc", http.StatusUnauthorized, ""},
		{"missing token after scheme", valid, "Bearer", http.StatusUnauthorized, ""},
		{"invalid token", invalid, "Bearer abc", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := JWTAuth(tt.auth, logger.NewNop())(http.HandlerFunc(echoUser))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
			if tt.status == http.StatusUnauthorized {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	m := metrics.NewMetricsManager("test")
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/posts/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/"+id, nil))
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/posts/{id}", "GET", "404")))
}

func TestLogger_PassesThrough(t *testing.T) {
	h := Logger(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
