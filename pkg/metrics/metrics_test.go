package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"graphharvest/pkg/collector"
	"graphharvest/pkg/graph"
	"graphharvest/pkg/harvest"
	"graphharvest/pkg/retry"
)

var (
	_ retry.Observer          = (*Recorder)(nil)
	_ graph.RequestObserver   = (*Recorder)(nil)
	_ collector.PageObserver  = (*Recorder)(nil)
	_ harvest.Observer        = (*Recorder)(nil)
)

func TestGovernorAccounting(t *testing.T) {
	r := New()

	r.ObserveAttempt("posts_next_page")
	r.ObserveAttempt("posts_next_page")
	r.ObserveThrottle("posts_next_page", 15*time.Minute)
	r.ObserveOutcome("posts_next_page", "success", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.attempts.WithLabelValues("posts_next_page")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.throttles.WithLabelValues("posts_next_page")))
	assert.Equal(t, 900.0, testutil.ToFloat64(r.throttleWait.WithLabelValues("posts_next_page")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues("posts_next_page", "success")))
}

func TestCollectionAccounting(t *testing.T) {
	r := New()

	r.ObservePage("posts", 25)
	r.ObservePage("posts", 10)
	r.ObserveStop("profiles_posts", "window")
	r.ObserveRows("profiles_posts", 30)
	r.ObserveRequest("posts", 200, 120*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.pages.WithLabelValues("posts")))
	assert.Equal(t, 35.0, testutil.ToFloat64(r.records.WithLabelValues("posts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stops.WithLabelValues("profiles_posts", "window")))
	assert.Equal(t, 30.0, testutil.ToFloat64(r.rows.WithLabelValues("profiles_posts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("posts", "200")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.ObserveRows("posts", 3)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `graphharvest_rows_total{operation="posts"} 3`))
}

func TestRecordersAreIndependent(t *testing.T) {
	a := New()
	b := New()
	a.ObserveRows("posts", 1)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.rows.WithLabelValues("posts")))
}
