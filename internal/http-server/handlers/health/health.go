package health

import (
	"eventFinder/internal/lib/api/response"
	"eventFinder/internal/ratelimit"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"time"
)

type LimiterState interface {
	Capacity() int
	InUse() int
}

type StatsReader interface {
	Snapshot() ratelimit.StatsSnapshot
}

type LimiterInfo struct {
	Capacity       int        `json:"capacity"`
	InUse          int        `json:"in_use"`
	Allowed        int64      `json:"allowed"`
	Denied         int64      `json:"denied"`
	PeakInUse      int        `json:"peak_in_use"`
	LastDecisionAt *time.Time `json:"last_decision_at,omitempty"`
}

type HealthResponse struct {
	response.Response
	Limiter LimiterInfo `json:"limiter"`
}

// New reports liveness together with the limiter state. stats may be nil.
func New(log *slog.Logger, limiter LimiterState, stats StatsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.health.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		info := LimiterInfo{
			Capacity: limiter.Capacity(),
			InUse:    limiter.InUse(),
		}
		if stats != nil {
			snap := stats.Snapshot()
			info.Allowed = snap.Allowed
			info.Denied = snap.Denied
			info.PeakInUse = snap.PeakInUse
			if !snap.LastDecisionAt.IsZero() {
				at := snap.LastDecisionAt.UTC()
				info.LastDecisionAt = &at
			}
		}

		log.Debug("health checked", slog.Int("in_use", info.InUse))

		render.JSON(w, r, HealthResponse{
			Response: response.OK(),
			Limiter:  info,
		})
	}
}
