package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldcollect/collection-engine/internal/config"
	"github.com/fieldcollect/collection-engine/internal/domain"
	"github.com/fieldcollect/collection-engine/internal/engine"
	customError "github.com/fieldcollect/collection-engine/pkg/errors"
	"github.com/fieldcollect/collection-engine/tests/mocks"
)

func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			RestDay:              0,
			DefaultJurisdiction:  "CO",
			DelinquencyThreshold: 15,
			ArrearsCacheTTL:      "15m",
		},
	}
}

func newTestService(loanRepo *mocks.MockLoanRepository, logRepo *mocks.MockCollectionLogRepository) *CollectionService {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewCollectionService(loanRepo, logRepo, nil, testConfig(), log)
}

func activeLoan() *domain.Loan {
	return &domain.Loan{
		ID:           uuid.New(),
		LoanID:       "LOAN123",
		ClientID:     "CLIENT1",
		Principal:    decimal.NewFromInt(500000),
		InterestRate: decimal.NewFromInt(20),
		Installments: 20,
		Frequency:    domain.FrequencyDaily,
		StartDate:    time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC),
		Jurisdiction: "CO",
		Status:       domain.LoanStatusActive,
	}
}

func generatedSchedule(t *testing.T, loan *domain.Loan) []domain.Installment {
	t.Helper()
	schedule, err := engine.Generate(loan.Terms(), engine.DefaultCalendar())
	require.NoError(t, err)
	for i := range schedule {
		schedule[i].LoanID = loan.LoanID
	}
	return schedule
}

func paymentEntries(loanID string, amounts ...int64) []*domain.CollectionLogEntry {
	entries := make([]*domain.CollectionLogEntry, 0, len(amounts))
	for _, amount := range amounts {
		entries = append(entries, &domain.CollectionLogEntry{
			ID:         uuid.New(),
			LoanID:     loanID,
			Type:       domain.EntryTypePayment,
			Amount:     decimal.NewFromInt(amount),
			RecordedAt: time.Now(),
		})
	}
	return entries
}

func paidSumOf(schedule []domain.Installment) decimal.Decimal {
	sum := decimal.Zero
	for _, inst := range schedule {
		sum = sum.Add(inst.PaidAmount)
	}
	return sum
}

func TestCreateLoan(t *testing.T) {
	tests := []struct {
		name          string
		request       *domain.CreateLoanRequest
		setupMocks    func(*mocks.MockLoanRepository)
		expectedError error
		validate      func(*testing.T, *domain.Loan, []domain.Installment)
	}{
		{
			name: "success",
			request: &domain.CreateLoanRequest{
				LoanID:       "LOAN123",
				ClientID:     "CLIENT1",
				Principal:    decimal.NewFromInt(500000),
				InterestRate: decimal.NewFromInt(20),
				Installments: 20,
				Frequency:    domain.FrequencyDaily,
				StartDate:    "2025-01-02",
				Jurisdiction: "CO",
			},
			setupMocks: func(loanRepo *mocks.MockLoanRepository) {
				loanRepo.On("GetByLoanID", mock.Anything, "LOAN123").Return(nil, sql.ErrNoRows)
				loanRepo.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
					return loan.LoanID == "LOAN123" && loan.Status == domain.LoanStatusActive
				}), mock.MatchedBy(func(schedule []domain.Installment) bool {
					return len(schedule) == 20
				})).Return(nil)
			},
			validate: func(t *testing.T, loan *domain.Loan, schedule []domain.Installment) {
				assert.Equal(t, "LOAN123", loan.LoanID)
				require.Len(t, schedule, 20)
				assert.True(t, schedule[0].Amount.Equal(decimal.NewFromInt(30000)))
			},
		},
		{
			name: "loan already exists",
			request: &domain.CreateLoanRequest{
				LoanID:       "LOAN456",
				ClientID:     "CLIENT1",
				Principal:    decimal.NewFromInt(500000),
				InterestRate: decimal.NewFromInt(20),
				Installments: 20,
				Frequency:    domain.FrequencyDaily,
				StartDate:    "2025-01-02",
				Jurisdiction: "CO",
			},
			setupMocks: func(loanRepo *mocks.MockLoanRepository) {
				loanRepo.On("GetByLoanID", mock.Anything, "LOAN456").Return(&domain.Loan{LoanID: "LOAN456"}, nil)
			},
			expectedError: customError.ErrLoanAlreadyExists,
		},
		{
			name: "invalid terms rejected before persistence",
			request: &domain.CreateLoanRequest{
				LoanID:       "LOAN789",
				ClientID:     "CLIENT1",
				Principal:    decimal.Zero,
				InterestRate: decimal.NewFromInt(20),
				Installments: 20,
				Frequency:    domain.FrequencyDaily,
				StartDate:    "2025-01-02",
				Jurisdiction: "CO",
			},
			setupMocks: func(loanRepo *mocks.MockLoanRepository) {
				loanRepo.On("GetByLoanID", mock.Anything, "LOAN789").Return(nil, sql.ErrNoRows)
			},
			expectedError: customError.ErrInvalidTerms,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loanRepo := &mocks.MockLoanRepository{}
			logRepo := &mocks.MockCollectionLogRepository{}
			tt.setupMocks(loanRepo)

			svc := newTestService(loanRepo, logRepo)
			loan, schedule, err := svc.CreateLoan(context.Background(), tt.request)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, loan)
			} else {
				require.NoError(t, err)
				tt.validate(t, loan, schedule)
			}

			loanRepo.AssertExpectations(t)
		})
	}
}

func TestRecordPaymentReprojectsSchedule(t *testing.T) {
	loan := activeLoan()
	schedule := generatedSchedule(t, loan)

	loanRepo := &mocks.MockLoanRepository{}
	logRepo := &mocks.MockCollectionLogRepository{}

	loanRepo.On("GetByLoanID", mock.Anything, loan.LoanID).Return(loan, nil)
	logRepo.On("Append", mock.Anything, mock.MatchedBy(func(entry *domain.CollectionLogEntry) bool {
		return entry.Type == domain.EntryTypePayment && entry.Amount.Equal(decimal.NewFromInt(15000))
	})).Return(nil)

	// The log already holds 30000; with the new 15000 the aggregate is 45000.
	logRepo.On("GetActiveByLoanID", mock.Anything, loan.LoanID).
		Return(paymentEntries(loan.LoanID, 30000, 15000), nil)
	loanRepo.On("GetSchedule", mock.Anything, loan.LoanID).Return(schedule, nil)
	loanRepo.On("UpdateSchedulePaid", mock.Anything, loan.LoanID, mock.MatchedBy(func(allocated []domain.Installment) bool {
		return paidSumOf(allocated).Equal(decimal.NewFromInt(45000)) &&
			allocated[0].Status() == domain.StatusPaid &&
			allocated[1].Status() == domain.StatusPartial
	})).Return(nil)

	svc := newTestService(loanRepo, logRepo)
	entry, err := svc.RecordPayment(context.Background(), loan.LoanID, &domain.RecordPaymentRequest{
		Amount: decimal.NewFromInt(15000),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ChannelCash, entry.Channel)

	loanRepo.AssertExpectations(t)
	logRepo.AssertExpectations(t)
}

func TestRecordPaymentClosesLoanWhenSettled(t *testing.T) {
	loan := activeLoan()
	schedule := generatedSchedule(t, loan)

	loanRepo := &mocks.MockLoanRepository{}
	logRepo := &mocks.MockCollectionLogRepository{}

	loanRepo.On("GetByLoanID", mock.Anything, loan.LoanID).Return(loan, nil)
	logRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
	logRepo.On("GetActiveByLoanID", mock.Anything, loan.LoanID).
		Return(paymentEntries(loan.LoanID, 570000, 30000), nil)
	loanRepo.On("GetSchedule", mock.Anything, loan.LoanID).Return(schedule, nil)
	loanRepo.On("UpdateSchedulePaid", mock.Anything, loan.LoanID, mock.Anything).Return(nil)
	loanRepo.On("UpdateStatus", mock.Anything, loan.LoanID, domain.LoanStatusPaid).Return(nil)

	svc := newTestService(loanRepo, logRepo)
	_, err := svc.RecordPayment(context.Background(), loan.LoanID, &domain.RecordPaymentRequest{
		Amount: decimal.NewFromInt(30000),
	})

	require.NoError(t, err)
	loanRepo.AssertExpectations(t)
}

func TestRecordPaymentRejections(t *testing.T) {
	closed := activeLoan()
	closed.Status = domain.LoanStatusPaid

	tests := []struct {
		name          string
		loan          *domain.Loan
		amount        decimal.Decimal
		expectedError error
	}{
		{"closed loan", closed, decimal.NewFromInt(100), customError.ErrLoanClosed},
		{"zero amount", activeLoan(), decimal.Zero, customError.ErrInvalidPaymentAmount},
		{"negative amount", activeLoan(), decimal.NewFromInt(-50), customError.ErrInvalidPaymentAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loanRepo := &mocks.MockLoanRepository{}
			logRepo := &mocks.MockCollectionLogRepository{}
			loanRepo.On("GetByLoanID", mock.Anything, tt.loan.LoanID).Return(tt.loan, nil)

			svc := newTestService(loanRepo, logRepo)
			_, err := svc.RecordPayment(context.Background(), tt.loan.LoanID, &domain.RecordPaymentRequest{Amount: tt.amount})

			assert.ErrorIs(t, err, tt.expectedError)
			logRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		})
	}
}

func TestRecordVisitAppendsWithoutReprojection(t *testing.T) {
	loan := activeLoan()

	loanRepo := &mocks.MockLoanRepository{}
	logRepo := &mocks.MockCollectionLogRepository{}

	loanRepo.On("GetByLoanID", mock.Anything, loan.LoanID).Return(loan, nil)
	logRepo.On("Append", mock.Anything, mock.MatchedBy(func(entry *domain.CollectionLogEntry) bool {
		return entry.Type == domain.EntryTypeNoPaymentVisit && entry.Amount.IsZero()
	})).Return(nil)

	svc := newTestService(loanRepo, logRepo)
	entry, err := svc.RecordVisit(context.Background(), loan.LoanID, &domain.RecordVisitRequest{Notes: "not home"})

	require.NoError(t, err)
	assert.Equal(t, "not home", entry.Notes)
	loanRepo.AssertNotCalled(t, "UpdateSchedulePaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteEntryReprojectsWithoutDeletedPayment(t *testing.T) {
	loan := activeLoan()
	schedule := generatedSchedule(t, loan)
	entry := paymentEntries(loan.LoanID, 30000)[0]

	loanRepo := &mocks.MockLoanRepository{}
	logRepo := &mocks.MockCollectionLogRepository{}

	logRepo.On("GetByID", mock.Anything, entry.ID).Return(entry, nil)
	logRepo.On("SoftDelete", mock.Anything, entry.ID).Return(nil)
	loanRepo.On("GetByLoanID", mock.Anything, loan.LoanID).Return(loan, nil)

	// After the deletion only a 15000 payment remains on the log.
	logRepo.On("GetActiveByLoanID", mock.Anything, loan.LoanID).
		Return(paymentEntries(loan.LoanID, 15000), nil)
	loanRepo.On("GetSchedule", mock.Anything, loan.LoanID).Return(schedule, nil)
	loanRepo.On("UpdateSchedulePaid", mock.Anything, loan.LoanID, mock.MatchedBy(func(allocated []domain.Installment) bool {
		return paidSumOf(allocated).Equal(decimal.NewFromInt(15000))
	})).Return(nil)

	svc := newTestService(loanRepo, logRepo)
	err := svc.DeleteEntry(context.Background(), entry.ID)

	require.NoError(t, err)
	logRepo.AssertExpectations(t)
	loanRepo.AssertExpectations(t)
}

func TestAmendEntryRejectsNonPayments(t *testing.T) {
	visit := &domain.CollectionLogEntry{
		ID:     uuid.New(),
		LoanID: "LOAN123",
		Type:   domain.EntryTypeNoPaymentVisit,
	}

	loanRepo := &mocks.MockLoanRepository{}
	logRepo := &mocks.MockCollectionLogRepository{}
	logRepo.On("GetByID", mock.Anything, visit.ID).Return(visit, nil)

	svc := newTestService(loanRepo, logRepo)
	err := svc.AmendEntry(context.Background(), visit.ID, &domain.AmendEntryRequest{Amount: decimal.NewFromInt(100)})

	assert.ErrorIs(t, err, customError.ErrEntryNotAmendable)
	logRepo.AssertNotCalled(t, "Amend", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTermsPreservesPaidAggregate(t *testing.T) {
	loan := activeLoan()

	loanRepo := &mocks.MockLoanRepository{}
	logRepo := &mocks.MockCollectionLogRepository{}

	loanRepo.On("GetByLoanID", mock.Anything, loan.LoanID).Return(loan, nil)
	logRepo.On("GetActiveByLoanID", mock.Anything, loan.LoanID).
		Return(paymentEntries(loan.LoanID, 30000, 15000), nil)
	loanRepo.On("ReplaceSchedule", mock.Anything, mock.MatchedBy(func(updated *domain.Loan) bool {
		return updated.Installments == 10
	}), mock.MatchedBy(func(schedule []domain.Installment) bool {
		return len(schedule) == 10 && paidSumOf(schedule).Equal(decimal.NewFromInt(45000))
	})).Return(nil)

	svc := newTestService(loanRepo, logRepo)
	schedule, err := svc.UpdateTerms(context.Background(), loan.LoanID, &domain.UpdateTermsRequest{
		Principal:    decimal.NewFromInt(500000),
		InterestRate: decimal.NewFromInt(20),
		Installments: 10,
		Frequency:    domain.FrequencyDaily,
		StartDate:    "2025-01-02",
	})

	require.NoError(t, err)
	require.Len(t, schedule, 10)
	assert.True(t, paidSumOf(schedule).Equal(decimal.NewFromInt(45000)))

	loanRepo.AssertExpectations(t)
}

func TestUpdateTermsInvalidTermsNothingPersisted(t *testing.T) {
	loan := activeLoan()

	loanRepo := &mocks.MockLoanRepository{}
	logRepo := &mocks.MockCollectionLogRepository{}

	loanRepo.On("GetByLoanID", mock.Anything, loan.LoanID).Return(loan, nil)
	logRepo.On("GetActiveByLoanID", mock.Anything, loan.LoanID).
		Return(paymentEntries(loan.LoanID, 45000), nil)

	svc := newTestService(loanRepo, logRepo)
	_, err := svc.UpdateTerms(context.Background(), loan.LoanID, &domain.UpdateTermsRequest{
		Principal:    decimal.Zero,
		InterestRate: decimal.NewFromInt(20),
		Installments: 10,
		Frequency:    domain.FrequencyDaily,
		StartDate:    "2025-01-02",
	})

	assert.ErrorIs(t, err, customError.ErrInvalidTerms)
	loanRepo.AssertNotCalled(t, "ReplaceSchedule", mock.Anything, mock.Anything, mock.Anything)
}

func TestDaysOverdueThroughService(t *testing.T) {
	loan := activeLoan()
	schedule := generatedSchedule(t, loan)

	loanRepo := &mocks.MockLoanRepository{}
	logRepo := &mocks.MockCollectionLogRepository{}

	loanRepo.On("GetByLoanID", mock.Anything, loan.LoanID).Return(loan, nil)
	loanRepo.On("GetSchedule", mock.Anything, loan.LoanID).Return(schedule, nil)
	logRepo.On("GetActiveByLoanID", mock.Anything, loan.LoanID).
		Return([]*domain.CollectionLogEntry{}, nil)

	svc := newTestService(loanRepo, logRepo)

	// First installment is due 2025-01-03; eleven days later the count
	// skips the Sundays 01-05 and 01-12.
	days, err := svc.DaysOverdue(context.Background(), loan.LoanID, time.Date(2025, time.January, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 8, days)

	// Not yet due.
	days, err = svc.DaysOverdue(context.Background(), loan.LoanID, time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, days)
}

func TestOutstanding(t *testing.T) {
	loan := activeLoan()

	loanRepo := &mocks.MockLoanRepository{}
	logRepo := &mocks.MockCollectionLogRepository{}

	loanRepo.On("GetByLoanID", mock.Anything, loan.LoanID).Return(loan, nil)
	logRepo.On("GetActiveByLoanID", mock.Anything, loan.LoanID).
		Return(paymentEntries(loan.LoanID, 30000, 15000), nil)

	svc := newTestService(loanRepo, logRepo)
	outstanding, err := svc.Outstanding(context.Background(), loan.LoanID)

	require.NoError(t, err)
	assert.True(t, outstanding.Equal(decimal.NewFromInt(555000)))
}

func TestRefreshArrearsFlagsDelinquents(t *testing.T) {
	loan := activeLoan()
	schedule := generatedSchedule(t, loan)

	loanRepo := &mocks.MockLoanRepository{}
	logRepo := &mocks.MockCollectionLogRepository{}

	loanRepo.On("GetActiveLoanIDs", mock.Anything).Return([]string{loan.LoanID}, nil)
	loanRepo.On("GetByLoanID", mock.Anything, loan.LoanID).Return(loan, nil)
	loanRepo.On("GetSchedule", mock.Anything, loan.LoanID).Return(schedule, nil)
	logRepo.On("GetActiveByLoanID", mock.Anything, loan.LoanID).
		Return([]*domain.CollectionLogEntry{}, nil)
	loanRepo.On("UpdateStatus", mock.Anything, loan.LoanID, domain.LoanStatusDefaulted).Return(nil)

	svc := newTestService(loanRepo, logRepo)

	// Well past the 15-day threshold with nothing paid.
	err := svc.RefreshArrears(context.Background(), time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	loanRepo.AssertCalled(t, "UpdateStatus", mock.Anything, loan.LoanID, domain.LoanStatusDefaulted)
}
