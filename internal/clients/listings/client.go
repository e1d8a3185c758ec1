// Package listings talks to the external events provider.
//
// Every request goes through the shared rate limiter. A rejected permit is
// returned as apperr.ErrRateLimitExceeded; every other failure, including an
// empty or malformed payload, is reported as apperr.ServiceUnavailableError.
package listings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eventFinder/internal/apperr"
	"eventFinder/internal/config"
	"eventFinder/internal/lib/future"
	"eventFinder/internal/lib/logger/sl"
	"eventFinder/internal/metrics"
	"eventFinder/internal/models"
)

const clientName = "listings"

type Limiter interface {
	Execute(ctx context.Context, fn func() error) error
}

type Client struct {
	baseURL  string
	location string
	fields   string
	http     *http.Client

	limiter Limiter
	pool    *future.Pool
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New builds a client. pool may be nil, in which case FetchAsync runs each
// request on its own goroutine.
func New(cfg config.Listings, limiter Limiter, pool *future.Pool, m *metrics.Metrics, log *slog.Logger) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		location: cfg.Location,
		fields:   cfg.Fields,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  limiter,
		pool:     pool,
		metrics:  m,
		log:      log,
	}
}

type eventsPayload struct {
	Results *[]eventDTO `json:"results"`
}

type eventDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Dates       []struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
	} `json:"dates"`
	Place *struct {
		ID int64 `json:"id"`
	} `json:"place"`
}

func (e eventDTO) toModel() models.EventCandidate {
	ev := models.EventCandidate{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Price:       e.Price,
	}
	if len(e.Dates) > 0 {
		ev.Date = time.Unix(e.Dates[0].Start, 0).UTC()
	}
	if e.Place != nil {
		ev.Place = &models.Place{ID: e.Place.ID}
	}

	return ev
}

// Events returns a lazy sequence of the candidates in rng. The request is
// sent when iteration starts, and every new iteration sends a new request.
// A failed request yields a single zero candidate with the error.
func (c *Client) Events(ctx context.Context, rng models.DateRange) iter.Seq2[models.EventCandidate, error] {
	return func(yield func(models.EventCandidate, error) bool) {
		events, err := c.fetch(ctx, rng)
		if err != nil {
			yield(models.EventCandidate{}, err)
			return
		}

		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// FetchAsync queues the request on the worker pool.
func (c *Client) FetchAsync(ctx context.Context, rng models.DateRange) *future.Future[[]models.EventCandidate] {
	task := func(ctx context.Context) ([]models.EventCandidate, error) {
		return c.fetch(ctx, rng)
	}

	if c.pool == nil {
		return future.Go(ctx, task)
	}
	return future.Submit(c.pool, ctx, task)
}

func (c *Client) fetch(ctx context.Context, rng models.DateRange) ([]models.EventCandidate, error) {
	const op = "listings.Client.fetch"

	log := c.log.With(slog.String("op", op))

	var events []models.EventCandidate
	err := c.limiter.Execute(ctx, func() error {
		var err error
		events, err = c.do(ctx, rng)
		return err
	})
	if err != nil {
		if errors.Is(err, apperr.ErrRateLimitExceeded) {
			log.Warn("listings request rejected by limiter")
			return nil, err
		}

		log.Error("failed to fetch events", sl.Err(err))
		return nil, apperr.Unavailable(fmt.Errorf("%s: %w", op, err))
	}

	log.Debug("events fetched", slog.Int("count", len(events)))

	return events, nil
}

func (c *Client) do(ctx context.Context, rng models.DateRange) ([]models.EventCandidate, error) {
	u, err := c.requestURL(rng)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.OutboundRequest(clientName, 0)
		return nil, err
	}
	defer resp.Body.Close()

	c.metrics.OutboundRequest(clientName, resp.StatusCode)

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload *eventsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if payload == nil || payload.Results == nil {
		return nil, errors.New("empty payload")
	}

	events := make([]models.EventCandidate, 0, len(*payload.Results))
	for _, dto := range *payload.Results {
		events = append(events, dto.toModel())
	}

	return events, nil
}

func (c *Client) requestURL(rng models.DateRange) (string, error) {
	u, err := url.Parse(strings.TrimSpace(c.baseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Set("fields", c.fields)
	q.Set("location", c.location)
	q.Set("actual_since", strconv.FormatInt(startOfDay(rng.From).Unix(), 10))
	q.Set("actual_until", strconv.FormatInt(startOfDay(rng.To).Unix(), 10))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
