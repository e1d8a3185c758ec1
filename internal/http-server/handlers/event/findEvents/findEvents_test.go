package findEvents

import (
	"encoding/json"
	"errors"
	"eventFinder/internal/apperr"
	"eventFinder/internal/http-server/handlers/event/findEvents/mocks"
	"eventFinder/internal/lib/logger/handlers/slogdiscard"
	"eventFinder/internal/models"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFindEventsHandler(t *testing.T) {
	t.Parallel()

	logger := slogdiscard.NewDiscardLogger()

	testTime := time.Date(2024, 1, 10, 19, 0, 0, 0, time.UTC)
	found := models.AggregatedResult{
		Count: 2,
		Results: []models.EventCandidate{
			{ID: 1, Title: "Jazz night", Price: "50 000 ₸", Date: testTime, Place: &models.Place{ID: 7}},
			{ID: 2, Title: "Stand-up", Price: "1500", Date: testTime.Add(24 * time.Hour)},
		},
	}

	testCases := []struct {
		name           string
		url            string
		mockSetup      func(m *mocks.EventsFinder)
		expectedStatus int
		expectedBody   string
		retryAfter     string
		checkBody      func(t *testing.T, body string)
	}{
		{
			name: "Success with events",
			url:  "/events?budget=1000&currency=usd&dateFrom=2024-01-08&dateTo=2024-01-14",
			mockSetup: func(m *mocks.EventsFinder) {
				m.On("FetchEvents", mock.Anything, 1000.0, "USD", "2024-01-08", "2024-01-14").Return(found, nil)
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body string) {
				var resp EventsResponse
				require.NoError(t, json.Unmarshal([]byte(body), &resp))

				assert.Equal(t, "OK", resp.Status)
				assert.Equal(t, "", resp.Error)
				assert.Equal(t, 2, resp.Count)
				require.Len(t, resp.Results, 2)
				assert.Equal(t, int64(1), resp.Results[0].ID)
				assert.Equal(t, "50 000 ₸", resp.Results[0].Price)
				assert.Equal(t, int64(7), resp.Results[0].Place.ID)
				assert.Equal(t, int64(2), resp.Results[1].ID)
			},
		},
		{
			name: "Success without dates",
			url:  "/events?budget=0&currency=RUB",
			mockSetup: func(m *mocks.EventsFinder) {
				m.On("FetchEvents", mock.Anything, 0.0, "RUB", "", "").Return(models.AggregatedResult{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","count":0,"results":[]}`,
		},
		{
			name:           "Missing budget",
			url:            "/events?currency=USD",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"field Budget is a required field"}`,
		},
		{
			name:           "Missing everything",
			url:            "/events",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"field Budget is a required field, field Currency is a required field"}`,
		},
		{
			name:           "Negative budget",
			url:            "/events?budget=-5&currency=USD",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"field Budget must not be negative"}`,
		},
		{
			name:           "Budget is not a number",
			url:            "/events?budget=lots&currency=USD",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"budget must be a number"}`,
		},
		{
			name:           "Budget is infinite",
			url:            "/events?budget=Inf&currency=USD",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"budget must be a number"}`,
		},
		{
			name:           "Invalid currency code",
			url:            "/events?budget=10&currency=DOLLAR",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"field Currency is not a valid currency code"}`,
		},
		{
			name: "Invalid date",
			url:  "/events?budget=10&currency=USD&dateFrom=10.01.2024&dateTo=2024-01-11",
			mockSetup: func(m *mocks.EventsFinder) {
				m.On("FetchEvents", mock.Anything, 10.0, "USD", "10.01.2024", "2024-01-11").
					Return(models.AggregatedResult{}, fmtErr(apperr.ErrInvalidDate))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid date, expected YYYY-MM-DD"}`,
		},
		{
			name: "Reversed range",
			url:  "/events?budget=10&currency=USD&dateFrom=2024-01-10&dateTo=2024-01-01",
			mockSetup: func(m *mocks.EventsFinder) {
				m.On("FetchEvents", mock.Anything, 10.0, "USD", "2024-01-10", "2024-01-01").
					Return(models.AggregatedResult{}, fmtErr(apperr.ErrInvalidDateRange))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"dateFrom must not be after dateTo"}`,
		},
		{
			name: "Currency not found",
			url:  "/events?budget=10&currency=EUR",
			mockSetup: func(m *mocks.EventsFinder) {
				m.On("FetchEvents", mock.Anything, 10.0, "EUR", "", "").
					Return(models.AggregatedResult{}, apperr.NewCurrencyNotFound("EUR"))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"currency not found: EUR"}`,
		},
		{
			name: "Rate limited",
			url:  "/events?budget=10&currency=USD",
			mockSetup: func(m *mocks.EventsFinder) {
				m.On("FetchEvents", mock.Anything, 10.0, "USD", "", "").
					Return(models.AggregatedResult{}, apperr.ErrRateLimitExceeded)
			},
			expectedStatus: http.StatusTooManyRequests,
			expectedBody:   `{"status":"Error","error":"too many requests to the events provider"}`,
		},
		{
			name: "Service unavailable",
			url:  "/events?budget=10&currency=USD",
			mockSetup: func(m *mocks.EventsFinder) {
				m.On("FetchEvents", mock.Anything, 10.0, "USD", "", "").
					Return(models.AggregatedResult{}, apperr.Unavailable(errors.New("connection refused")))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"status":"Error","error":"events service unavailable"}`,
			retryAfter:     "3600",
		},
		{
			name: "Unclassified error",
			url:  "/events?budget=10&currency=USD",
			mockSetup: func(m *mocks.EventsFinder) {
				m.On("FetchEvents", mock.Anything, 10.0, "USD", "", "").
					Return(models.AggregatedResult{}, errors.New("boom"))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"status":"Error","error":"events service unavailable"}`,
			retryAfter:     "3600",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockFinder := mocks.NewEventsFinder(t)
			if tc.mockSetup != nil {
				tc.mockSetup(mockFinder)
			}

			handler := New(logger, mockFinder)

			req, err := http.NewRequest(http.MethodGet, tc.url, nil)
			require.NoError(t, err)

			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code, "Status code mismatch")
			assert.Equal(t, tc.retryAfter, rr.Header().Get("Retry-After"))

			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "Response body mismatch")
			} else if tc.checkBody != nil {
				tc.checkBody(t, rr.Body.String())
			}

			mockFinder.AssertExpectations(t)
		})
	}
}

func fmtErr(kind error) error {
	return errors.Join(errors.New("daterange.Resolver.Resolve"), kind)
}

func TestResponseOKNilResults(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	responseOK(rr, req, models.AggregatedResult{})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"OK","count":0,"results":[]}`, rr.Body.String())
}
