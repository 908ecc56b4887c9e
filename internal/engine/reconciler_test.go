package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcollect/collection-engine/internal/domain"
	customError "github.com/fieldcollect/collection-engine/pkg/errors"
)

func TestReconcileShrinksInstallmentCount(t *testing.T) {
	// 45000 paid against the 20-installment loan, then the count is edited
	// down to 10. The paid sum must survive the edit exactly.
	totalPaid := decimal.NewFromInt(45000)

	newTerms := dailyTerms()
	newTerms.Installments = 10

	schedule, err := Reconcile(newTerms, totalPaid, DefaultCalendar())
	require.NoError(t, err)
	require.Len(t, schedule, 10)

	// New face value is 60000, so the full 45000 sits on installment 1.
	assert.True(t, schedule[0].Amount.Equal(decimal.NewFromInt(60000)))
	assert.True(t, schedule[0].PaidAmount.Equal(totalPaid))
	assert.Equal(t, domain.StatusPartial, schedule[0].Status())

	assert.True(t, paidSum(schedule).Equal(totalPaid))
}

func TestReconcilePreservesAggregateAcrossEdits(t *testing.T) {
	totalPaid := decimal.NewFromFloat(77777.77)

	edits := []func(*domain.LoanTerms){
		func(tm *domain.LoanTerms) { tm.Installments = 5 },
		func(tm *domain.LoanTerms) { tm.Principal = decimal.NewFromInt(750000) },
		func(tm *domain.LoanTerms) { tm.InterestRate = decimal.NewFromInt(35) },
		func(tm *domain.LoanTerms) { tm.Frequency = domain.FrequencyWeekly },
	}

	for _, edit := range edits {
		terms := dailyTerms()
		edit(&terms)

		schedule, err := Reconcile(terms, totalPaid, DefaultCalendar())
		require.NoError(t, err)
		assert.True(t, paidSum(schedule).Equal(totalPaid))
	}
}

func TestReconcileFullyPaidStaysPaid(t *testing.T) {
	terms := dailyTerms()
	terms.Installments = 10

	schedule, err := Reconcile(terms, decimal.NewFromInt(600000), DefaultCalendar())
	require.NoError(t, err)

	for _, inst := range schedule {
		assert.Equal(t, domain.StatusPaid, inst.Status())
	}
}

func TestReconcileInvalidTermsProducesNothing(t *testing.T) {
	terms := dailyTerms()
	terms.Principal = decimal.Zero

	schedule, err := Reconcile(terms, decimal.NewFromInt(45000), DefaultCalendar())
	assert.Nil(t, schedule)
	assert.ErrorIs(t, err, customError.ErrInvalidTerms)
}
