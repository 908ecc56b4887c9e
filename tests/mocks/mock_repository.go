package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/fieldcollect/collection-engine/internal/domain"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan, schedule []domain.Installment) error {
	args := m.Called(ctx, loan, schedule)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetSchedule(ctx context.Context, loanID string) ([]domain.Installment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Installment), args.Error(1)
}

func (m *MockLoanRepository) ReplaceSchedule(ctx context.Context, loan *domain.Loan, schedule []domain.Installment) error {
	args := m.Called(ctx, loan, schedule)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateSchedulePaid(ctx context.Context, loanID string, schedule []domain.Installment) error {
	args := m.Called(ctx, loanID, schedule)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateStatus(ctx context.Context, loanID string, status string) error {
	args := m.Called(ctx, loanID, status)
	return args.Error(0)
}

func (m *MockLoanRepository) GetActiveLoanIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockCollectionLogRepository struct {
	mock.Mock
}

func (m *MockCollectionLogRepository) Append(ctx context.Context, entry *domain.CollectionLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCollectionLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CollectionLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionLogEntry), args.Error(1)
}

func (m *MockCollectionLogRepository) GetActiveByLoanID(ctx context.Context, loanID string) ([]*domain.CollectionLogEntry, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CollectionLogEntry), args.Error(1)
}

func (m *MockCollectionLogRepository) Amend(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockCollectionLogRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
