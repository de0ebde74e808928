package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/mindmap/internal/llm"
	"github.com/ziadkadry99/mindmap/internal/tree"
)

func TestObservers(t *testing.T) {
	c := NewCollector("mindmap")

	c.ObserveExpand(tree.OutcomeExpanded, true)
	c.ObserveExpand(tree.OutcomeExpanded, true)
	c.ObserveExpand(tree.OutcomeIgnored, false)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Expansions.WithLabelValues("expanded", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Expansions.WithLabelValues("ignored", "false")))

	c.ObserveCompletion("openai", time.Second, &llm.CompletionResponse{InputTokens: 10, OutputTokens: 30}, nil)
	c.ObserveCompletion("openai", time.Second, nil, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LLMRequests.WithLabelValues("openai", "error")))
	assert.Equal(t, 30.0, testutil.ToFloat64(c.LLMTokens.WithLabelValues("openai", "output")))

	c.ObserveExport("pdf", 200*time.Millisecond, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Exports.WithLabelValues("pdf", "ok")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	c := NewCollector("mindmap")
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/api/maps/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", c.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/maps/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/maps/{id}", "404")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "mindmap_http_requests_total"), body)
}
