package daterange

import (
	"fmt"
	"strings"
	"time"

	"eventFinder/internal/apperr"
	"eventFinder/internal/models"
)

const layout = "2006-01-02"

type Resolver struct {
	now func() time.Time
}

type Option func(*Resolver)

// WithClock overrides the resolver's notion of "today".
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func New(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve parses from/to as YYYY-MM-DD. If either is blank the current
// Monday..Sunday week is used instead.
func (r *Resolver) Resolve(from, to string) (models.DateRange, error) {
	const op = "daterange.Resolver.Resolve"

	from, to = strings.TrimSpace(from), strings.TrimSpace(to)

	var rng models.DateRange
	if from != "" && to != "" {
		f, err := parseDate(from)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("%s: %w", op, err)
		}
		t, err := parseDate(to)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("%s: %w", op, err)
		}
		rng = models.DateRange{From: f, To: t}
	} else {
		rng = CurrentWeek(r.now())
	}

	if rng.From.After(rng.To) {
		return models.DateRange{}, fmt.Errorf("%w: start date %s is after end date %s",
			apperr.ErrInvalidDateRange, rng.From.Format(layout), rng.To.Format(layout))
	}

	return rng, nil
}

// CurrentWeek returns the ISO week (Monday through Sunday) containing now,
// evaluated in now's location and normalised to UTC midnight.
func CurrentWeek(now time.Time) models.DateRange {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(today.Weekday()) + 6) % 7

	monday := today.AddDate(0, 0, -offset)
	return models.DateRange{From: monday, To: monday.AddDate(0, 0, 6)}
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM-DD", apperr.ErrInvalidDate, s)
	}
	return t, nil
}
