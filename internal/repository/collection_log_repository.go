package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fieldcollect/collection-engine/internal/domain"
)

type collectionLogRepository struct {
	db *sqlx.DB
}

func NewCollectionLogRepository(db *sqlx.DB) CollectionLogRepository {
	return &collectionLogRepository{db: db}
}

func (r *collectionLogRepository) Append(ctx context.Context, entry *domain.CollectionLogEntry) error {
	query := `
		INSERT INTO collection_log (id, loan_id, type, amount, channel, is_renewal, notes, recorded_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.LoanID,
		entry.Type,
		entry.Amount,
		entry.Channel,
		entry.IsRenewal,
		entry.Notes,
		entry.RecordedAt,
	)

	return err
}

func (r *collectionLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CollectionLogEntry, error) {
	query := `
		SELECT id, loan_id, type, amount, channel, is_renewal, notes, recorded_at, deleted_at
		FROM collection_log
		WHERE id = $1
	`

	var entry domain.CollectionLogEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *collectionLogRepository) GetActiveByLoanID(ctx context.Context, loanID string) ([]*domain.CollectionLogEntry, error) {
	query := `
		SELECT id, loan_id, type, amount, channel, is_renewal, notes, recorded_at, deleted_at
		FROM collection_log
		WHERE loan_id = $1 AND deleted_at IS NULL
		ORDER BY recorded_at
	`

	var entries []*domain.CollectionLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, loanID); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *collectionLogRepository) Amend(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE collection_log
		SET amount = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, id, amount)
	return err
}

func (r *collectionLogRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE collection_log
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, id, time.Now())
	return err
}
