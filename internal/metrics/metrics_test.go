package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilStudioIsSafe(t *testing.T) {
	var s *Studio
	s.SetLiveChains(3)
	s.ParamUpdate("volume")
	s.CaptureSession("completed")
	s.Decode("ok")
	s.ObserveRender(time.Millisecond)
	s.ObserveRemote("synthesize", "ok", time.Second)
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.SetLiveChains(2)
	s.ParamUpdate("pan")
	s.ParamUpdate("pan")
	s.CaptureSession("rejected")

	assert.Equal(t, 2.0, testutil.ToFloat64(s.liveChains))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.paramUpdates.WithLabelValues("pan")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.captures.WithLabelValues("rejected")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)
	s.Decode("error")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `studio_decodes_total{outcome="error"} 1`))
}
