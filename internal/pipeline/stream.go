package pipeline

import (
	"context"
	"log/slog"

	"eventFinder/internal/metrics"
	"eventFinder/internal/models"
)

const backendStream = "stream"

// StreamAggregator pulls candidates from the provider's iterator on a
// separate goroutine while the budget conversion runs as a future.
type StreamAggregator struct {
	dates     DateResolver
	events    EventStreamer
	converter AsyncConverter
	log       *slog.Logger
	metrics   *metrics.Metrics
}

func NewStream(dates DateResolver, events EventStreamer, converter AsyncConverter, log *slog.Logger, m *metrics.Metrics) *StreamAggregator {
	return &StreamAggregator{
		dates:     dates,
		events:    events,
		converter: converter,
		log:       log.With(slog.String("op", "pipeline.StreamAggregator.FetchEvents")),
		metrics:   m,
	}
}

func (a *StreamAggregator) FetchEvents(ctx context.Context, budget float64, currency, from, to string) (models.AggregatedResult, error) {
	inv := begin(a.log, a.metrics, backendStream)

	rng, err := a.dates.Resolve(from, to)
	if err != nil {
		return inv.fail(err)
	}

	inv.enter(StateFetchingAndConverting)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	converted := a.converter.ConvertAsync(ctx, budget, currency)

	events := make(chan models.EventCandidate)
	fetchErr := make(chan error, 1)

	go func() {
		// close after any error is buffered so the consumer sees it once the channel drains
		defer close(events)

		for ev, err := range a.events.Events(ctx, rng) {
			if err != nil {
				fetchErr <- err
				return
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var amount models.ConvertedBudget
	select {
	case err := <-fetchErr:
		converted.Cancel()
		return inv.fail(err)
	case <-converted.Done():
		amount, err = converted.Await(ctx)
		if err != nil {
			return inv.fail(err)
		}
	case <-ctx.Done():
		return inv.fail(ctx.Err())
	}

	inv.enter(StateFiltering)

	results, seen := filterByBudget(func(yield func(models.EventCandidate) bool) {
		for ev := range events {
			if !yield(ev) {
				return
			}
		}
	}, amount.Amount)

	select {
	case err := <-fetchErr:
		return inv.fail(err)
	default:
	}
	if err := ctx.Err(); err != nil {
		return inv.fail(err)
	}

	return inv.done(results, seen)
}
