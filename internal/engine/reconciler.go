package engine

import (
	"github.com/shopspring/decimal"

	"github.com/fieldcollect/collection-engine/internal/domain"
)

// Reconcile rebuilds a loan's schedule after a mid-life terms edit: a fresh
// schedule is generated for the new terms, then the waterfall re-fills it
// from the aggregate total recomputed off the collection log. The old
// per-installment breakdown is discarded on purpose — face amounts and due
// dates may have shifted, and re-running the waterfall against the aggregate
// is the only way to keep the paid sum exact across the edit.
//
// On invalid terms nothing is produced, so callers can persist the result
// all-or-nothing.
func Reconcile(newTerms domain.LoanTerms, totalPaid decimal.Decimal, cal *Calendar) ([]domain.Installment, error) {
	schedule, err := Generate(newTerms, cal)
	if err != nil {
		return nil, err
	}
	return Allocate(schedule, totalPaid), nil
}
