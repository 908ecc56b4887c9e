package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment status values. Status is always derived from the paid amount
// versus the face amount; it is never written or persisted on its own.
const (
	StatusPending = "pending"
	StatusPartial = "partial"
	StatusPaid    = "paid"
)

// AmountEpsilon absorbs cent-rounding noise when comparing paid versus face
// amounts across many installments.
var AmountEpsilon = decimal.NewFromFloat(0.01)

// Installment is one entry in a loan's repayment schedule. Numbers are
// 1-based and contiguous for a loan.
type Installment struct {
	LoanID     string          `json:"loan_id" db:"loan_id"`
	Number     int             `json:"number" db:"number"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	DueDate    time.Time       `json:"due_date" db:"due_date"`
	PaidAmount decimal.Decimal `json:"paid_amount" db:"paid_amount"`
}

// Status derives the installment state from its amounts.
func (i Installment) Status() string {
	if i.PaidAmount.GreaterThanOrEqual(i.Amount.Sub(AmountEpsilon)) {
		return StatusPaid
	}
	if i.PaidAmount.GreaterThan(decimal.Zero) {
		return StatusPartial
	}
	return StatusPending
}

// Remaining returns the unpaid part of the face amount, never negative.
func (i Installment) Remaining() decimal.Decimal {
	r := i.Amount.Sub(i.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// ScheduleEntry is the outward-facing shape of an installment with the
// derived status filled in.
type ScheduleEntry struct {
	Number     int             `json:"number"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    string          `json:"due_date"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Status     string          `json:"status"`
}

type ScheduleResponse struct {
	LoanID   string          `json:"loan_id"`
	Schedule []ScheduleEntry `json:"schedule"`
}

// NewScheduleResponse projects installments into response entries.
func NewScheduleResponse(loanID string, installments []Installment) *ScheduleResponse {
	entries := make([]ScheduleEntry, 0, len(installments))
	for _, inst := range installments {
		entries = append(entries, ScheduleEntry{
			Number:     inst.Number,
			Amount:     inst.Amount,
			DueDate:    inst.DueDate.Format("2006-01-02"),
			PaidAmount: inst.PaidAmount,
			Status:     inst.Status(),
		})
	}
	return &ScheduleResponse{LoanID: loanID, Schedule: entries}
}
