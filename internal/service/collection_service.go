package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fieldcollect/collection-engine/internal/config"
	"github.com/fieldcollect/collection-engine/internal/domain"
	"github.com/fieldcollect/collection-engine/internal/engine"
	"github.com/fieldcollect/collection-engine/internal/repository"
	customError "github.com/fieldcollect/collection-engine/pkg/errors"
	"github.com/fieldcollect/collection-engine/pkg/utils"
)

// CollectionService orchestrates the amortization and arrears engine around
// the loan store and the append-only collection log. Every read of "current
// state" is a full recompute from the log, never an incremental patch.
type CollectionService struct {
	loanRepo repository.LoanRepository
	logRepo  repository.CollectionLogRepository
	redis    *redis.Client
	config   *config.Config
	calendar *engine.Calendar
	log      *logrus.Logger
}

func NewCollectionService(
	loanRepo repository.LoanRepository,
	logRepo repository.CollectionLogRepository,
	redisClient *redis.Client,
	cfg *config.Config,
	log *logrus.Logger,
) *CollectionService {
	return &CollectionService{
		loanRepo: loanRepo,
		logRepo:  logRepo,
		redis:    redisClient,
		config:   cfg,
		calendar: engine.NewCalendar(cfg.RestWeekday()),
		log:      log,
	}
}

// CreateLoan originates a loan and generates its installment schedule.
func (s *CollectionService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.Loan, []domain.Installment, error) {
	existing, err := s.loanRepo.GetByLoanID(ctx, request.LoanID)
	if err == nil && existing != nil {
		return nil, nil, customError.WrapLoanAlreadyExists(request.LoanID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	startDate, err := utils.ParseDate(request.StartDate)
	if err != nil {
		return nil, nil, customError.WrapInvalidTerms(err.Error())
	}

	terms := domain.LoanTerms{
		Principal:      request.Principal,
		InterestRate:   request.InterestRate,
		Installments:   request.Installments,
		Frequency:      request.Frequency,
		StartDate:      startDate,
		Jurisdiction:   request.Jurisdiction,
		CustomHolidays: request.CustomHolidays,
	}

	schedule, err := engine.Generate(terms, s.calendar)
	if err != nil {
		return nil, nil, err
	}
	for i := range schedule {
		schedule[i].LoanID = request.LoanID
	}

	now := time.Now().UTC()
	loan := &domain.Loan{
		ID:             uuid.New(),
		LoanID:         request.LoanID,
		ClientID:       request.ClientID,
		Principal:      request.Principal,
		InterestRate:   request.InterestRate,
		Installments:   request.Installments,
		Frequency:      request.Frequency,
		StartDate:      startDate,
		Jurisdiction:   request.Jurisdiction,
		CustomHolidays: pq.StringArray(request.CustomHolidays),
		Status:         domain.LoanStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err = s.loanRepo.Create(ctx, loan, schedule); err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	s.log.WithFields(logrus.Fields{
		"loan_id":      loan.LoanID,
		"installments": len(schedule),
		"total":        terms.TotalAmount().String(),
	}).Info("loan originated")

	return loan, schedule, nil
}

// RecordPayment appends a payment to the collection log and reprojects the
// schedule from the new aggregate total.
func (s *CollectionService) RecordPayment(ctx context.Context, loanID string, request *domain.RecordPaymentRequest) (*domain.CollectionLogEntry, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == domain.LoanStatusPaid {
		return nil, customError.WrapLoanClosed(loanID)
	}
	if !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(request.Amount.String())
	}

	channel := request.Channel
	if channel == "" {
		channel = domain.ChannelCash
	}

	entry := &domain.CollectionLogEntry{
		ID:         uuid.New(),
		LoanID:     loanID,
		Type:       domain.EntryTypePayment,
		Amount:     request.Amount.Round(2),
		Channel:    channel,
		IsRenewal:  request.IsRenewal,
		Notes:      request.Notes,
		RecordedAt: time.Now().UTC(),
	}

	if err = s.logRepo.Append(ctx, entry); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if err = s.reproject(ctx, loan); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"loan_id": loanID,
		"entry":   entry.ID,
		"amount":  entry.Amount.String(),
		"channel": channel,
	}).Info("payment recorded")

	return entry, nil
}

// RecordVisit appends a no-payment visit. Visits carry no money, so the
// projection is untouched.
func (s *CollectionService) RecordVisit(ctx context.Context, loanID string, request *domain.RecordVisitRequest) (*domain.CollectionLogEntry, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}

	entry := &domain.CollectionLogEntry{
		ID:         uuid.New(),
		LoanID:     loanID,
		Type:       domain.EntryTypeNoPaymentVisit,
		Amount:     decimal.Zero,
		Channel:    domain.ChannelCash,
		Notes:      request.Notes,
		RecordedAt: time.Now().UTC(),
	}

	if err := s.logRepo.Append(ctx, entry); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.log.WithFields(logrus.Fields{"loan_id": loanID, "entry": entry.ID}).Info("no-payment visit recorded")

	return entry, nil
}

// AmendEntry corrects the amount of a recorded payment and reprojects.
func (s *CollectionService) AmendEntry(ctx context.Context, entryID uuid.UUID, request *domain.AmendEntryRequest) error {
	entry, err := s.logRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapEntryNotFound(entryID.String())
		}
		return customError.WrapDatabaseError(err)
	}
	if !entry.Active() || entry.Type != domain.EntryTypePayment {
		return customError.WrapEntryNotAmendable(entryID.String())
	}
	if !request.Amount.IsPositive() {
		return customError.WrapInvalidPaymentAmount(request.Amount.String())
	}

	if err = s.logRepo.Amend(ctx, entryID, request.Amount.Round(2)); err != nil {
		return customError.WrapDatabaseError(err)
	}

	loan, err := s.getLoan(ctx, entry.LoanID)
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"loan_id": entry.LoanID,
		"entry":   entryID,
		"amount":  request.Amount.String(),
	}).Info("collection log entry amended")

	return s.reproject(ctx, loan)
}

// DeleteEntry soft-deletes a log entry and reprojects the schedule without
// the removed money.
func (s *CollectionService) DeleteEntry(ctx context.Context, entryID uuid.UUID) error {
	entry, err := s.logRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapEntryNotFound(entryID.String())
		}
		return customError.WrapDatabaseError(err)
	}
	if !entry.Active() {
		return customError.WrapEntryNotFound(entryID.String())
	}

	if err = s.logRepo.SoftDelete(ctx, entryID); err != nil {
		return customError.WrapDatabaseError(err)
	}

	s.log.WithFields(logrus.Fields{"loan_id": entry.LoanID, "entry": entryID}).Info("collection log entry deleted")

	if entry.Type != domain.EntryTypePayment {
		return nil
	}

	loan, err := s.getLoan(ctx, entry.LoanID)
	if err != nil {
		return err
	}

	return s.reproject(ctx, loan)
}

// UpdateTerms edits a live loan and reconciles its schedule: a fresh
// schedule for the new terms, re-filled by the waterfall from the aggregate
// recomputed off the log. Persisted all-or-nothing.
func (s *CollectionService) UpdateTerms(ctx context.Context, loanID string, request *domain.UpdateTermsRequest) ([]domain.Installment, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	startDate, err := utils.ParseDate(request.StartDate)
	if err != nil {
		return nil, customError.WrapInvalidTerms(err.Error())
	}

	newTerms := domain.LoanTerms{
		Principal:      request.Principal,
		InterestRate:   request.InterestRate,
		Installments:   request.Installments,
		Frequency:      request.Frequency,
		StartDate:      startDate,
		Jurisdiction:   loan.Jurisdiction,
		CustomHolidays: request.CustomHolidays,
	}

	totalPaid, err := s.totalPaid(ctx, loanID)
	if err != nil {
		return nil, err
	}

	schedule, err := engine.Reconcile(newTerms, totalPaid, s.calendar)
	if err != nil {
		return nil, err
	}
	for i := range schedule {
		schedule[i].LoanID = loanID
	}

	loan.Principal = newTerms.Principal
	loan.InterestRate = newTerms.InterestRate
	loan.Installments = newTerms.Installments
	loan.Frequency = newTerms.Frequency
	loan.StartDate = newTerms.StartDate
	loan.CustomHolidays = pq.StringArray(newTerms.CustomHolidays)

	if err = s.loanRepo.ReplaceSchedule(ctx, loan, schedule); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if err = s.refreshLoanStatus(ctx, loan, totalPaid); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"loan_id":      loanID,
		"installments": len(schedule),
		"total_paid":   totalPaid.String(),
	}).Info("loan terms updated, schedule reconciled")

	return schedule, nil
}

// GetSchedule returns the loan's schedule with paid amounts freshly
// projected from the collection log.
func (s *CollectionService) GetSchedule(ctx context.Context, loanID string) ([]domain.Installment, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	schedule, err := s.loanRepo.GetSchedule(ctx, loan.LoanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if len(schedule) == 0 {
		return nil, customError.WrapEmptySchedule(loanID)
	}

	totalPaid, err := s.totalPaid(ctx, loanID)
	if err != nil {
		return nil, err
	}

	return engine.Allocate(schedule, totalPaid), nil
}

// DaysOverdue computes the loan's arrears as of the injected local date.
// Results are cached per loan and day.
func (s *CollectionService) DaysOverdue(ctx context.Context, loanID string, today time.Time) (int, error) {
	cacheKey := fmt.Sprintf("arrears:%s:%s", loanID, utils.FormatDate(today))
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Int(); err == nil {
			return cached, nil
		}
	}

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return 0, err
	}

	allocated, err := s.GetSchedule(ctx, loanID)
	if err != nil {
		return 0, err
	}

	days := engine.DaysOverdue(
		allocated,
		today,
		loan.Jurisdiction,
		engine.NewDateSet(loan.CustomHolidays),
		s.calendar,
	)

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey, days, s.config.GetArrearsCacheTTL()).Err(); err != nil {
			s.log.WithError(err).Warn("arrears cache write failed")
		}
	}

	return days, nil
}

// Outstanding returns the total amount due minus everything collected.
func (s *CollectionService) Outstanding(ctx context.Context, loanID string) (decimal.Decimal, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return decimal.Zero, err
	}

	totalPaid, err := s.totalPaid(ctx, loanID)
	if err != nil {
		return decimal.Zero, err
	}

	return loan.TotalAmount().Sub(totalPaid), nil
}

// RefreshArrears recomputes arrears for every collecting loan, warms the
// cache, and flags loans past the delinquency threshold.
func (s *CollectionService) RefreshArrears(ctx context.Context, today time.Time) error {
	ids, err := s.loanRepo.GetActiveLoanIDs(ctx)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	for _, loanID := range ids {
		days, err := s.DaysOverdue(ctx, loanID, today)
		if err != nil {
			s.log.WithError(err).WithField("loan_id", loanID).Error("arrears refresh failed for loan")
			continue
		}

		if days >= s.config.Business.DelinquencyThreshold {
			loan, err := s.getLoan(ctx, loanID)
			if err != nil {
				return err
			}
			if loan.Status != domain.LoanStatusDefaulted {
				if err = s.loanRepo.UpdateStatus(ctx, loanID, domain.LoanStatusDefaulted); err != nil {
					return customError.WrapDatabaseError(err)
				}
				s.log.WithFields(logrus.Fields{"loan_id": loanID, "days_overdue": days}).Warn("loan flagged delinquent")
			}
		}
	}

	return nil
}

func (s *CollectionService) getLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

func (s *CollectionService) totalPaid(ctx context.Context, loanID string) (decimal.Decimal, error) {
	entries, err := s.logRepo.GetActiveByLoanID(ctx, loanID)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(err)
	}
	return domain.TotalPaid(entries), nil
}

// reproject rebuilds the installment paid amounts from the aggregate total
// and persists them, then re-derives the loan status.
func (s *CollectionService) reproject(ctx context.Context, loan *domain.Loan) error {
	totalPaid, err := s.totalPaid(ctx, loan.LoanID)
	if err != nil {
		return err
	}

	schedule, err := s.loanRepo.GetSchedule(ctx, loan.LoanID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	allocated := engine.Allocate(schedule, totalPaid)
	if err = s.loanRepo.UpdateSchedulePaid(ctx, loan.LoanID, allocated); err != nil {
		return customError.WrapDatabaseError(err)
	}

	return s.refreshLoanStatus(ctx, loan, totalPaid)
}

func (s *CollectionService) refreshLoanStatus(ctx context.Context, loan *domain.Loan, totalPaid decimal.Decimal) error {
	outstanding := loan.TotalAmount().Sub(totalPaid)

	status := loan.Status
	if outstanding.LessThanOrEqual(domain.AmountEpsilon) {
		status = domain.LoanStatusPaid
	} else if loan.Status == domain.LoanStatusPaid {
		// A deletion or amendment reopened the balance.
		status = domain.LoanStatusActive
	}

	if status == loan.Status {
		return nil
	}
	if err := s.loanRepo.UpdateStatus(ctx, loan.LoanID, status); err != nil {
		return customError.WrapDatabaseError(err)
	}
	loan.Status = status
	return nil
}
