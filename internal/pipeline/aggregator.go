// Package pipeline finds events that fit a budget.
//
// One invocation resolves the date window, then fetches candidate events and
// converts the budget concurrently, joins both branches and keeps the events
// whose price fits. Two backends implement the same Aggregator contract:
// StreamAggregator consumes the provider as an iterator over channels, while
// FutureAggregator joins a pooled fetch future and a conversion future with
// errgroup.
package pipeline

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"eventFinder/internal/apperr"
	"eventFinder/internal/lib/future"
	"eventFinder/internal/lib/logger/sl"
	"eventFinder/internal/metrics"
	"eventFinder/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Aggregator interface {
	FetchEvents(ctx context.Context, budget float64, currency, from, to string) (models.AggregatedResult, error)
}

type DateResolver interface {
	Resolve(from, to string) (models.DateRange, error)
}

type EventStreamer interface {
	Events(ctx context.Context, rng models.DateRange) iter.Seq2[models.EventCandidate, error]
}

type AsyncEventFetcher interface {
	FetchAsync(ctx context.Context, rng models.DateRange) *future.Future[[]models.EventCandidate]
}

type Converter interface {
	Convert(ctx context.Context, amount float64, from string) (models.ConvertedBudget, error)
}

type AsyncConverter interface {
	ConvertAsync(ctx context.Context, amount float64, from string) *future.Future[models.ConvertedBudget]
}

type State string

const (
	StateResolvingDates        State = "ResolvingDates"
	StateFetchingAndConverting State = "FetchingAndConverting"
	StateFiltering             State = "Filtering"
	StateDone                  State = "Done"
	StateFailed                State = "Failed"
)

// filterByBudget keeps candidates whose price fits budget, in input order.
// It also returns how many candidates were seen.
func filterByBudget(candidates iter.Seq[models.EventCandidate], budget decimal.Decimal) ([]models.EventCandidate, int) {
	kept := make([]models.EventCandidate, 0)
	seen := 0

	for ev := range candidates {
		seen++
		if ParsePrice(ev.Price).Within(budget) {
			kept = append(kept, ev)
		}
	}

	return kept, seen
}

// invocation tracks one FetchEvents call through its states.
type invocation struct {
	log     *slog.Logger
	metrics *metrics.Metrics
	backend string
	started time.Time
}

func begin(log *slog.Logger, m *metrics.Metrics, backend string) *invocation {
	inv := &invocation{
		log: log.With(
			slog.String("invocation_id", uuid.NewString()),
			slog.String("backend", backend),
		),
		metrics: m,
		backend: backend,
		started: time.Now(),
	}
	inv.enter(StateResolvingDates)

	return inv
}

func (i *invocation) enter(s State) {
	i.log.Debug("pipeline state changed", slog.String("state", string(s)))
}

// fail maps err onto the public error vocabulary and closes the invocation.
func (i *invocation) fail(err error) (models.AggregatedResult, error) {
	err = normalize(err)
	kind := apperr.Kind(err)

	i.log.Debug("pipeline state changed", slog.String("state", string(StateFailed)+"("+kind+")"))

	attrs := []any{slog.String("kind", kind), sl.Err(err)}
	var unavailable *apperr.ServiceUnavailableError
	if errors.As(err, &unavailable) && unavailable.Cause() != nil {
		attrs = append(attrs, slog.String("cause", unavailable.Cause().Error()))
	}
	i.log.Warn("pipeline failed", attrs...)

	i.metrics.PipelineDone(i.backend, kind, time.Since(i.started))

	return models.AggregatedResult{}, err
}

func (i *invocation) done(results []models.EventCandidate, candidates int) (models.AggregatedResult, error) {
	i.enter(StateDone)
	i.log.Info("events matched",
		slog.Int("candidates", candidates),
		slog.Int("matched", len(results)),
	)
	i.metrics.PipelineDone(i.backend, apperr.Kind(nil), time.Since(i.started))

	return models.AggregatedResult{Count: len(results), Results: results}, nil
}

func normalize(err error) error {
	return apperr.Normalize(err)
}
