package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Collection log entry types. The log is append-only: operators may amend a
// payment amount or soft-delete an entry, but rows are never rewritten in
// place beyond that.
const (
	EntryTypePayment        = "payment"
	EntryTypeNoPaymentVisit = "no_payment_visit"
)

// Payment channels.
const (
	ChannelCash       = "cash"
	ChannelElectronic = "electronic"
)

// CollectionLogEntry records one field visit against a loan. It is the
// source of truth for money collected; installment paid amounts are a
// projection recomputed from these rows.
type CollectionLogEntry struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	LoanID     string          `json:"loan_id" db:"loan_id"`
	Type       string          `json:"type" db:"type"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Channel    string          `json:"channel" db:"channel"`
	IsRenewal  bool            `json:"is_renewal" db:"is_renewal"`
	Notes      string          `json:"notes" db:"notes"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`
	DeletedAt  *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Active reports whether the entry still counts toward the loan's totals.
func (e *CollectionLogEntry) Active() bool {
	return e != nil && e.DeletedAt == nil
}

// TotalPaid sums the amounts of all active payment entries, rounded to
// cents. Every consumer of "total paid" goes through this one function so
// the waterfall allocator always receives a consistently computed input.
func TotalPaid(entries []*CollectionLogEntry) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		if !entry.Active() || entry.Type != EntryTypePayment {
			continue
		}
		total = total.Add(entry.Amount)
	}
	return total.Round(2)
}

// DTOs for requests and responses

type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Channel   string          `json:"channel" validate:"omitempty,oneof=cash electronic"`
	IsRenewal bool            `json:"is_renewal"`
	Notes     string          `json:"notes"`
}

type RecordVisitRequest struct {
	Notes string `json:"notes"`
}

type AmendEntryRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}
