package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fieldcollect/collection-engine/internal/domain"
)

// Allocate distributes an aggregate paid total across installments in a
// waterfall: ascending by number, each installment fills to its face amount
// before the remainder spills into the next. Amounts round to cents at
// every step. The input slice is never mutated; the same total always
// yields the same breakdown regardless of how payments arrived over time.
//
// A total exceeding the schedule's face sum is accepted; the excess lands
// on the last installment so the paid sum still equals the input exactly.
// Capping overpayment is the caller's policy, not the allocator's.
func Allocate(installments []domain.Installment, totalPaid decimal.Decimal) []domain.Installment {
	out := make([]domain.Installment, len(installments))
	copy(out, installments)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })

	left := totalPaid.Round(2)
	for i := range out {
		out[i].PaidAmount = decimal.Zero
		if !left.IsPositive() {
			continue
		}
		applied := decimal.Min(out[i].Amount, left).Round(2)
		out[i].PaidAmount = applied
		left = left.Sub(applied).Round(2)
	}

	if left.IsPositive() && len(out) > 0 {
		last := len(out) - 1
		out[last].PaidAmount = out[last].PaidAmount.Add(left).Round(2)
	}

	return out
}
