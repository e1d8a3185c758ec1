package pipeline

import (
	"context"
	"log/slog"
	"slices"

	"eventFinder/internal/lib/future"
	"eventFinder/internal/metrics"
	"eventFinder/internal/models"

	"golang.org/x/sync/errgroup"
)

const backendFuture = "future"

// FutureAggregator joins the fetch future (queued by the fetcher, usually on
// the shared worker pool) and a conversion future with an errgroup. The
// conversion runs on its own goroutine so a busy pool never serialises the
// two branches. The first failure cancels the other branch.
type FutureAggregator struct {
	dates     DateResolver
	events    AsyncEventFetcher
	converter Converter
	log       *slog.Logger
	metrics   *metrics.Metrics
}

func NewFuture(dates DateResolver, events AsyncEventFetcher, converter Converter, log *slog.Logger, m *metrics.Metrics) *FutureAggregator {
	return &FutureAggregator{
		dates:     dates,
		events:    events,
		converter: converter,
		log:       log.With(slog.String("op", "pipeline.FutureAggregator.FetchEvents")),
		metrics:   m,
	}
}

func (a *FutureAggregator) FetchEvents(ctx context.Context, budget float64, currency, from, to string) (models.AggregatedResult, error) {
	inv := begin(a.log, a.metrics, backendFuture)

	rng, err := a.dates.Resolve(from, to)
	if err != nil {
		return inv.fail(err)
	}

	inv.enter(StateFetchingAndConverting)

	g, gctx := errgroup.WithContext(ctx)

	eventsF := a.events.FetchAsync(gctx, rng)
	budgetF := future.Go(gctx, func(ctx context.Context) (models.ConvertedBudget, error) {
		return a.converter.Convert(ctx, budget, currency)
	})

	var (
		candidates []models.EventCandidate
		converted  models.ConvertedBudget
	)
	g.Go(func() error {
		var err error
		candidates, err = eventsF.Await(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		converted, err = budgetF.Await(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		eventsF.Cancel()
		budgetF.Cancel()
		return inv.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return inv.fail(err)
	}

	inv.enter(StateFiltering)

	results, seen := filterByBudget(slices.Values(candidates), converted.Amount)

	return inv.done(results, seen)
}
