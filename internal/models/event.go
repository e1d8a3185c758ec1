package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventCandidate is a listing as returned by the provider. Price is kept raw.
type EventCandidate struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Date        time.Time `json:"date"`
	Place       *Place    `json:"place,omitempty"`
}

type Place struct {
	ID int64 `json:"id"`
}

// DateRange is an inclusive window of calendar dates, both at UTC midnight.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ConvertedBudget is the caller's budget expressed in the settlement currency.
type ConvertedBudget struct {
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Source         float64         `json:"source"`
	SourceCurrency string          `json:"source_currency"`
}

type AggregatedResult struct {
	Count   int              `json:"count"`
	Results []EventCandidate `json:"results"`
}
