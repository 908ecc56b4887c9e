package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldcollect/collection-engine/internal/domain"
)

// LoanRepository defines the interface for loan and schedule data operations
type LoanRepository interface {
	// Create persists a loan together with its freshly generated schedule
	Create(ctx context.Context, loan *domain.Loan, schedule []domain.Installment) error

	// GetByLoanID retrieves a loan by its loan ID
	GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error)

	// GetSchedule retrieves the loan's installments ordered by number
	GetSchedule(ctx context.Context, loanID string) ([]domain.Installment, error)

	// ReplaceSchedule swaps the loan's terms and schedule in one transaction
	ReplaceSchedule(ctx context.Context, loan *domain.Loan, schedule []domain.Installment) error

	// UpdateSchedulePaid writes the reprojected paid amounts
	UpdateSchedulePaid(ctx context.Context, loanID string, schedule []domain.Installment) error

	// UpdateStatus updates the loan status
	UpdateStatus(ctx context.Context, loanID string, status string) error

	// GetActiveLoanIDs lists loans that still collect payments
	GetActiveLoanIDs(ctx context.Context) ([]string, error)
}

// CollectionLogRepository defines the interface for the append-only
// collection log
type CollectionLogRepository interface {
	// Append records a new log entry
	Append(ctx context.Context, entry *domain.CollectionLogEntry) error

	// GetByID retrieves a single entry, deleted or not
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CollectionLogEntry, error)

	// GetActiveByLoanID retrieves non-deleted entries in chronological order
	GetActiveByLoanID(ctx context.Context, loanID string) ([]*domain.CollectionLogEntry, error)

	// Amend corrects the amount of a payment entry
	Amend(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	// SoftDelete marks an entry as deleted without losing its history
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
