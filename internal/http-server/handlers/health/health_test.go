package health

import (
	"context"
	"encoding/json"
	"eventFinder/internal/lib/logger/handlers/slogdiscard"
	"eventFinder/internal/ratelimit"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedLimiter struct{ capacity, inUse int }

func (l fixedLimiter) Capacity() int { return l.capacity }
func (l fixedLimiter) InUse() int    { return l.inUse }

type fixedStats ratelimit.StatsSnapshot

func (s fixedStats) Snapshot() ratelimit.StatsSnapshot { return ratelimit.StatsSnapshot(s) }

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	logger := slogdiscard.NewDiscardLogger()

	testCases := []struct {
		name         string
		limiter      LimiterState
		stats        StatsReader
		expectedBody string
	}{
		{
			name:         "Without stats",
			limiter:      fixedLimiter{capacity: 2},
			expectedBody: `{"status":"OK","limiter":{"capacity":2,"in_use":0,"allowed":0,"denied":0,"peak_in_use":0}}`,
		},
		{
			name:    "With stats",
			limiter: fixedLimiter{capacity: 2, inUse: 1},
			stats: fixedStats{
				Allowed:        5,
				Denied:         2,
				PeakInUse:      2,
				LastDecisionAt: time.Date(2024, 1, 10, 18, 42, 0, 0, time.FixedZone("MSK", 3*3600)),
			},
			expectedBody: `{"status":"OK","limiter":{"capacity":2,"in_use":1,"allowed":5,"denied":2,"peak_in_use":2,"last_decision_at":"2024-01-10T15:42:00Z"}}`,
		},
		{
			name:         "Stats without decisions",
			limiter:      fixedLimiter{capacity: 3},
			stats:        fixedStats{},
			expectedBody: `{"status":"OK","limiter":{"capacity":3,"in_use":0,"allowed":0,"denied":0,"peak_in_use":0}}`,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()

			New(logger, tc.limiter, tc.stats).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func TestHealthHandler_ReportsLimiterDecisions(t *testing.T) {
	t.Parallel()

	mem := ratelimit.NewMemoryStatsStore()
	limiter := ratelimit.New(1, ratelimit.WithStats(mem))

	release, err := limiter.TryAcquire(context.Background())
	require.NoError(t, err)
	defer release()

	_, err = limiter.TryAcquire(context.Background())
	require.Error(t, err)

	limiter.Close()

	rr := httptest.NewRecorder()
	New(slogdiscard.NewDiscardLogger(), limiter, mem).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, 1, resp.Limiter.Capacity)
	assert.Equal(t, 1, resp.Limiter.InUse)
	assert.Equal(t, int64(1), resp.Limiter.Allowed)
	assert.Equal(t, int64(1), resp.Limiter.Denied)
	assert.Equal(t, 1, resp.Limiter.PeakInUse)
	assert.NotNil(t, resp.Limiter.LastDecisionAt)
}
