package findEvents

import (
	"context"
	"errors"
	"eventFinder/internal/apperr"
	"eventFinder/internal/lib/api/response"
	"eventFinder/internal/lib/logger/sl"
	"eventFinder/internal/models"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
)

type EventsRequest struct {
	Budget   *float64 `json:"budget" validate:"required,gte=0"`
	Currency string   `json:"currency" validate:"required,len=3,alpha"`
	DateFrom string   `json:"dateFrom,omitempty"`
	DateTo   string   `json:"dateTo,omitempty"`
}

type EventsResponse struct {
	response.Response
	Count   int                     `json:"count"`
	Results []models.EventCandidate `json:"results"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventsFinder
type EventsFinder interface {
	FetchEvents(ctx context.Context, budget float64, currency, from, to string) (models.AggregatedResult, error)
}

func New(log *slog.Logger, finder EventsFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.findEvents.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		req, err := decodeQuery(r)
		if err != nil {
			log.Error("failed to decode query", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("budget must be a number"))

			return
		}

		if err = validator.New().Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))

			return
		}

		res, err := finder.FetchEvents(r.Context(), *req.Budget, req.Currency, req.DateFrom, req.DateTo)
		if err != nil {
			log.Error("failed to find events", sl.Err(err))
			responseError(w, r, err)

			return
		}

		log.Info("events found", slog.Int("count", res.Count))

		responseOK(w, r, res)
	}
}

func decodeQuery(r *http.Request) (EventsRequest, error) {
	q := r.URL.Query()

	req := EventsRequest{
		Currency: strings.ToUpper(strings.TrimSpace(q.Get("currency"))),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
	}

	if raw := strings.TrimSpace(q.Get("budget")); raw != "" {
		budget, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return EventsRequest{}, err
		}
		if math.IsNaN(budget) || math.IsInf(budget, 0) {
			return EventsRequest{}, errors.New("budget is not finite")
		}
		req.Budget = &budget
	}

	return req, nil
}

func responseError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound    *apperr.CurrencyNotFoundError
		unavailable *apperr.ServiceUnavailableError
	)

	switch {
	case errors.Is(err, apperr.ErrInvalidDate):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid date, expected YYYY-MM-DD"))
	case errors.Is(err, apperr.ErrInvalidDateRange):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("dateFrom must not be after dateTo"))
	case errors.As(err, &notFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("currency not found: "+notFound.Code))
	case errors.Is(err, apperr.ErrRateLimitExceeded):
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, response.Error("too many requests to the events provider"))
	default:
		retryAfter := apperr.DefaultRetryAfter
		if errors.As(err, &unavailable) {
			retryAfter = unavailable.RetryAfter
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("events service unavailable"))
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, res models.AggregatedResult) {
	results := res.Results
	if results == nil {
		results = []models.EventCandidate{}
	}

	render.JSON(w, r, EventsResponse{
		Response: response.OK(),
		Count:    len(results),
		Results:  results,
	})
}
