package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive    = "active"
	LoanStatusPaid      = "paid"
	LoanStatusDefaulted = "defaulted"
)

// Payment frequency values. Biweekly follows the quincenal convention of
// 15 calendar days, not 14.
const (
	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// LoanTerms is the immutable input to schedule generation: everything the
// engine needs to lay out installments for one loan at a point in time.
type LoanTerms struct {
	Principal      decimal.Decimal
	InterestRate   decimal.Decimal // percent, 20 means 20%
	Installments   int
	Frequency      string
	StartDate      time.Time
	Jurisdiction   string
	CustomHolidays []string // loan-specific ISO dates skipped for collection
}

// TotalAmount returns principal * (1 + rate/100) rounded to cents.
func (t LoanTerms) TotalAmount() decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return t.Principal.Mul(hundred.Add(t.InterestRate)).Div(hundred).Round(2)
}

// Loan represents a loan entity
type Loan struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	LoanID         string          `json:"loan_id" db:"loan_id"`
	ClientID       string          `json:"client_id" db:"client_id"`
	Principal      decimal.Decimal `json:"principal" db:"principal"`
	InterestRate   decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	Installments   int             `json:"installments" db:"installments"`
	Frequency      string          `json:"frequency" db:"frequency"`
	StartDate      time.Time       `json:"start_date" db:"start_date"`
	Jurisdiction   string          `json:"jurisdiction" db:"jurisdiction"`
	CustomHolidays pq.StringArray  `json:"custom_holidays" db:"custom_holidays"`
	Status         string          `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Terms extracts the schedule-relevant view of the loan.
func (l *Loan) Terms() LoanTerms {
	return LoanTerms{
		Principal:      l.Principal,
		InterestRate:   l.InterestRate,
		Installments:   l.Installments,
		Frequency:      l.Frequency,
		StartDate:      l.StartDate,
		Jurisdiction:   l.Jurisdiction,
		CustomHolidays: []string(l.CustomHolidays),
	}
}

// TotalAmount returns the full amount due over the life of the loan.
func (l *Loan) TotalAmount() decimal.Decimal {
	return l.Terms().TotalAmount()
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	LoanID         string          `json:"loan_id" validate:"required"`
	ClientID       string          `json:"client_id" validate:"required"`
	Principal      decimal.Decimal `json:"principal" validate:"required"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	Installments   int             `json:"installments" validate:"required,gt=0"`
	Frequency      string          `json:"frequency" validate:"required,oneof=daily weekly biweekly monthly"`
	StartDate      string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	Jurisdiction   string          `json:"jurisdiction" validate:"required,len=2"`
	CustomHolidays []string        `json:"custom_holidays" validate:"omitempty,dive,datetime=2006-01-02"`
}

type UpdateTermsRequest struct {
	Principal      decimal.Decimal `json:"principal" validate:"required"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	Installments   int             `json:"installments" validate:"required,gt=0"`
	Frequency      string          `json:"frequency" validate:"required,oneof=daily weekly biweekly monthly"`
	StartDate      string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	CustomHolidays []string        `json:"custom_holidays" validate:"omitempty,dive,datetime=2006-01-02"`
}

type CreateLoanResponse struct {
	Loan     *Loan           `json:"loan"`
	Schedule []ScheduleEntry `json:"schedule"`
}

type OutstandingResponse struct {
	LoanID      string          `json:"loan_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type ArrearsResponse struct {
	LoanID      string `json:"loan_id"`
	AsOf        string `json:"as_of"`
	DaysOverdue int    `json:"days_overdue"`
}
