package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/sideswap/internal/testutil/testlog"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	active int64
	ready  bool
}

func (p fakeProbe) ActiveSessions() int64 { return p.active }
func (p fakeProbe) Ready() bool           { return p.ready }

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	SessionOpened()
	RecordCommand("START", "IN_PROGRESS")
	RecordJob("COMPLETED", 2, 3*time.Millisecond)
	RecordReadRetry("server")
	RecordHTTPRequest("sideswapd", "GET", "/health", 200, time.Millisecond)
	SessionClosed("eof")
}

func TestAdminRouterHealth(t *testing.T) {
	testlog.Start(t)
	r := AdminRouter("sideswapd", nil, fakeProbe{active: 3, ready: true}, zerolog.Nop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "sideswapd", body["node"])
	assert.EqualValues(t, 3, body["active_sessions"])
}

func TestAdminRouterReadyAndMetrics(t *testing.T) {
	testlog.Start(t)
	r := AdminRouter("sideswapd", []string{"http://localhost:8080"}, fakeProbe{ready: false}, zerolog.Nop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	RecordCommand("STATUS", "UNKNOWN")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "sideswap_session_commands_total"))
}

func TestAdminRequestsCarryNodeLabel(t *testing.T) {
	testlog.Start(t)
	var logs bytes.Buffer
	logger := zerolog.New(&logs).Level(zerolog.DebugLevel)
	r := AdminRouter("sideswapd-east", nil, fakeProbe{ready: true}, logger)

	counter := httpRequests.WithLabelValues("sideswapd-east", http.MethodGet, "/ready", "200")
	before := promtest.ToFloat64(counter)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before+1, promtest.ToFloat64(counter))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, promtest.ToFloat64(
		httpRequests.WithLabelValues("sideswapd-east", http.MethodGet, "unmatched", "404")))

	assert.Contains(t, logs.String(), `"node":"sideswapd-east"`)
	assert.Contains(t, logs.String(), `"route":"/ready"`)
	assert.Contains(t, logs.String(), `"level":"warn"`)
}
