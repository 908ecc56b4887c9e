package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fieldcollect/collection-engine/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan, schedule []domain.Installment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	loanQuery := `
		INSERT INTO loans (id, loan_id, client_id, principal, interest_rate, installments, frequency,
			start_date, jurisdiction, custom_holidays, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = tx.ExecContext(ctx, loanQuery,
		loan.ID,
		loan.LoanID,
		loan.ClientID,
		loan.Principal,
		loan.InterestRate,
		loan.Installments,
		loan.Frequency,
		loan.StartDate,
		loan.Jurisdiction,
		loan.CustomHolidays,
		loan.Status,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err = insertSchedule(ctx, tx, loan.LoanID, schedule); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *loanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `
		SELECT id, loan_id, client_id, principal, interest_rate, installments, frequency,
			start_date, jurisdiction, custom_holidays, status, created_at, updated_at
		FROM loans
		WHERE loan_id = $1
	`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, loanID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetSchedule(ctx context.Context, loanID string) ([]domain.Installment, error) {
	query := `
		SELECT loan_id, number, amount, due_date, paid_amount
		FROM loan_schedule
		WHERE loan_id = $1
		ORDER BY number
	`

	var schedule []domain.Installment
	if err := r.db.SelectContext(ctx, &schedule, query, loanID); err != nil {
		return nil, err
	}

	return schedule, nil
}

// ReplaceSchedule applies a terms edit: the loan row and the whole schedule
// change together or not at all.
func (r *loanRepository) ReplaceSchedule(ctx context.Context, loan *domain.Loan, schedule []domain.Installment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	loanQuery := `
		UPDATE loans
		SET principal = $2, interest_rate = $3, installments = $4, frequency = $5,
			start_date = $6, custom_holidays = $7, updated_at = $8
		WHERE loan_id = $1
	`

	_, err = tx.ExecContext(ctx, loanQuery,
		loan.LoanID,
		loan.Principal,
		loan.InterestRate,
		loan.Installments,
		loan.Frequency,
		loan.StartDate,
		loan.CustomHolidays,
		time.Now(),
	)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM loan_schedule WHERE loan_id = $1`, loan.LoanID); err != nil {
		return err
	}

	if err = insertSchedule(ctx, tx, loan.LoanID, schedule); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *loanRepository) UpdateSchedulePaid(ctx context.Context, loanID string, schedule []domain.Installment) error {
	query := `
		UPDATE loan_schedule
		SET paid_amount = $3
		WHERE loan_id = $1 AND number = $2
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, inst := range schedule {
		if _, err = tx.ExecContext(ctx, query, loanID, inst.Number, inst.PaidAmount); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *loanRepository) UpdateStatus(ctx context.Context, loanID string, status string) error {
	query := `
		UPDATE loans
		SET status = $2, updated_at = $3
		WHERE loan_id = $1
	`

	_, err := r.db.ExecContext(ctx, query, loanID, status, time.Now())
	return err
}

func (r *loanRepository) GetActiveLoanIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT loan_id
		FROM loans
		WHERE status IN ($1, $2)
		ORDER BY loan_id
	`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, domain.LoanStatusActive, domain.LoanStatusDefaulted); err != nil {
		return nil, err
	}

	return ids, nil
}

func insertSchedule(ctx context.Context, tx *sqlx.Tx, loanID string, schedule []domain.Installment) error {
	query := `
		INSERT INTO loan_schedule (loan_id, number, amount, due_date, paid_amount)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, inst := range schedule {
		_, err := tx.ExecContext(ctx, query,
			loanID,
			inst.Number,
			inst.Amount,
			inst.DueDate,
			inst.PaidAmount,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
