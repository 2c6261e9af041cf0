package debug

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/mmcdole/moviesearch/internal/log"
	"github.com/mmcdole/moviesearch/internal/query"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedBreaker string

func (b fixedBreaker) BreakerState() string { return string(b) }

func newTestServer(t *testing.T, breaker BreakerReporter) (*Server, *query.Client) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := query.NewMetrics(reg)
	client := query.NewClient(nil, query.WithLogger(log.NullLogger()), query.WithMetrics(metrics))
	return New("127.0.0.1:0", client, breaker, reg, log.NullLogger()), client
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, fixedBreaker("closed"))
	rec := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "closed", body.Breaker)
}

func TestHealthzOpenBreaker(t *testing.T) {
	s, _ := newTestServer(t, fixedBreaker("open"))
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestHealthzWithoutBreaker(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"disabled"`)
}

func TestQueries(t *testing.T) {
	s, client := newTestServer(t, nil)

	rec := get(t, s, "/debug/queries")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"entries":[]}`, rec.Body.String())

	q := query.New(client, query.Options[[]string]{
		Key: query.Key{"movies", "popular"},
		Fn: func(ctx context.Context) ([]string, error) {
			return []string{"Heat"}, nil
		},
	})
	_, err := q.Fetch(context.Background())
	require.NoError(t, err)

	rec = get(t, s, "/debug/queries")
	var body queriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, `["movies","popular"]`, body.Entries[0].Key)
}

func TestMetrics(t *testing.T) {
	s, client := newTestServer(t, nil)

	q := query.New(client, query.Options[int]{
		Key: query.Key{"movies", "details", 1},
		Fn:  func(ctx context.Context) (int, error) { return 1, nil },
	})
	_, _ = q.Fetch(context.Background())

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "moviesearch_query_fetches_total"))
}

func TestStartAndShutdown(t *testing.T) {
	s, _ := newTestServer(t, nil)
	addr, err := s.Start()
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
}
