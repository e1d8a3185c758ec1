package currency

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"eventFinder/internal/apperr"
	"eventFinder/internal/config"
	"eventFinder/internal/lib/future"
	"eventFinder/internal/lib/logger/sl"
	"eventFinder/internal/metrics"
	"eventFinder/internal/models"

	"github.com/shopspring/decimal"
)

const clientName = "currency"

// Client converts budgets through the currency-rate service.
type Client struct {
	baseURL    string
	settlement string
	http       *http.Client
	metrics    *metrics.Metrics
	log        *slog.Logger
}

func New(cfg config.Currency, m *metrics.Metrics, log *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		settlement: strings.ToUpper(cfg.Settlement),
		http:       &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
		log:        log,
	}
}

type convertRequest struct {
	FromCurrency string  `json:"fromCurrency"`
	ToCurrency   string  `json:"toCurrency"`
	Amount       float64 `json:"amount"`
}

type convertResponse struct {
	ConvertedAmount *decimal.Decimal `json:"convertedAmount"`
}

// Convert expresses amount of currency from in the settlement currency.
// A code the rate service does not know is reported as *apperr.CurrencyNotFoundError.
func (c *Client) Convert(ctx context.Context, amount float64, from string) (models.ConvertedBudget, error) {
	const op = "currency.Client.Convert"

	from = strings.ToUpper(strings.TrimSpace(from))
	log := c.log.With(
		slog.String("op", op),
		slog.String("from", from),
		slog.String("to", c.settlement),
	)

	converted, err := c.convert(ctx, amount, from)
	if err != nil {
		if errors.Is(err, apperr.ErrCurrencyNotFound) {
			log.Info("currency not recognised")
			return models.ConvertedBudget{}, err
		}

		log.Error("failed to convert budget", sl.Err(err))
		return models.ConvertedBudget{}, apperr.Unavailable(fmt.Errorf("%s: %w", op, err))
	}

	log.Debug("budget converted", slog.String("amount", converted.String()))

	return models.ConvertedBudget{
		Amount:         converted,
		Currency:       c.settlement,
		Source:         amount,
		SourceCurrency: from,
	}, nil
}

// ConvertAsync runs Convert on its own goroutine.
func (c *Client) ConvertAsync(ctx context.Context, amount float64, from string) *future.Future[models.ConvertedBudget] {
	return future.Go(ctx, func(ctx context.Context) (models.ConvertedBudget, error) {
		return c.Convert(ctx, amount, from)
	})
}

func (c *Client) convert(ctx context.Context, amount float64, from string) (decimal.Decimal, error) {
	body, err := json.Marshal(convertRequest{
		FromCurrency: from,
		ToCurrency:   c.settlement,
		Amount:       amount,
	})
	if err != nil {
		return decimal.Zero, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/currencies/convert", bytes.NewReader(body))
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.OutboundRequest(clientName, 0)
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	c.metrics.OutboundRequest(clientName, resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound:
		return decimal.Zero, apperr.NewCurrencyNotFound(from)
	case resp.StatusCode/100 != 2:
		return decimal.Zero, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("decode response: %w", err)
	}
	if out.ConvertedAmount == nil {
		return decimal.Zero, errors.New("response has no convertedAmount")
	}
	if out.ConvertedAmount.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative converted amount %s", out.ConvertedAmount)
	}

	return *out.ConvertedAmount, nil
}
