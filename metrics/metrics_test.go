package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plume-app/plume/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	t.Parallel()

	m := metrics.New()

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "not found", http.StatusNotFound)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/", "/", "/missing"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, scrape.Code)

	body := scrape.Body.String()
	assert.Contains(t, body, `plume_http_requests_total{method="GET",status="200"} 2`)
	assert.Contains(t, body, `plume_http_requests_total{method="GET",status="404"} 1`)
	assert.Contains(t, body, "plume_http_request_duration_seconds")
}
