package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcollect/collection-engine/internal/domain"
)

func singleInstallment(due time.Time, paid decimal.Decimal) []domain.Installment {
	return []domain.Installment{{
		Number:     1,
		Amount:     decimal.NewFromInt(30000),
		DueDate:    due,
		PaidAmount: paid,
	}}
}

func TestDaysOverdue(t *testing.T) {
	cal := DefaultCalendar()

	tests := []struct {
		name     string
		schedule []domain.Installment
		today    time.Time
		want     int
	}{
		{
			name:     "empty schedule",
			schedule: nil,
			today:    date(2025, time.January, 18),
			want:     0,
		},
		{
			name:     "due date in the future",
			schedule: singleInstallment(date(2025, time.January, 20), decimal.Zero),
			today:    date(2025, time.January, 18),
			want:     0,
		},
		{
			name:     "due today",
			schedule: singleInstallment(date(2025, time.January, 18), decimal.Zero),
			today:    date(2025, time.January, 18),
			want:     0,
		},
		{
			name:     "due yesterday reads as zero under the same-day cutoff",
			schedule: singleInstallment(date(2025, time.January, 17), decimal.Zero),
			today:    date(2025, time.January, 18),
			want:     0,
		},
		{
			// Mon 01-06 overdue as of Sat 01-18: 01-07..01-17 minus the
			// Sunday 01-12 leaves ten countable days.
			name:     "ten business days late",
			schedule: singleInstallment(date(2025, time.January, 6), decimal.Zero),
			today:    date(2025, time.January, 18),
			want:     10,
		},
		{
			name:     "fully paid installment never accrues",
			schedule: singleInstallment(date(2025, time.January, 6), decimal.NewFromInt(30000)),
			today:    date(2025, time.January, 18),
			want:     0,
		},
		{
			name:     "partial payment still counts as unpaid",
			schedule: singleInstallment(date(2025, time.January, 6), decimal.NewFromInt(15000)),
			today:    date(2025, time.January, 18),
			want:     10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaysOverdue(tt.schedule, tt.today, "CO", nil, cal)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDaysOverdueSkipsCustomHolidays(t *testing.T) {
	cal := DefaultCalendar()
	schedule := singleInstallment(date(2025, time.January, 6), decimal.Zero)

	custom := NewDateSet([]string{"2025-01-08", "2025-01-09"})
	got := DaysOverdue(schedule, date(2025, time.January, 18), "CO", custom, cal)
	assert.Equal(t, 8, got)
}

func TestDaysOverdueUsesFirstUnpaidInstallment(t *testing.T) {
	// Installment 1 paid, installment 2 is the oldest unpaid one.
	schedule := []domain.Installment{
		{Number: 1, Amount: decimal.NewFromInt(30000), DueDate: date(2025, time.January, 6), PaidAmount: decimal.NewFromInt(30000)},
		{Number: 2, Amount: decimal.NewFromInt(30000), DueDate: date(2025, time.January, 13), PaidAmount: decimal.Zero},
	}

	got := DaysOverdue(schedule, date(2025, time.January, 18), "CO", nil, DefaultCalendar())
	// Strictly between Mon 01-13 and Sat 01-18: 01-14..01-17, no Sunday.
	assert.Equal(t, 4, got)
}

func TestDaysOverdueGrowsByAtMostOnePerDay(t *testing.T) {
	cal := DefaultCalendar()
	schedule := singleInstallment(date(2025, time.January, 6), decimal.Zero)

	previous := 0
	for d := date(2025, time.January, 7); d.Before(date(2025, time.February, 7)); d = d.AddDate(0, 0, 1) {
		current := DaysOverdue(schedule, d, "CO", nil, cal)
		require.GreaterOrEqual(t, current, previous)
		require.LessOrEqual(t, current-previous, 1)
		previous = current
	}
}

func TestDaysOverdueOnAllocatedLoan(t *testing.T) {
	schedule, err := Generate(dailyTerms(), DefaultCalendar())
	require.NoError(t, err)

	// Paying exactly two installments moves the arrears anchor to number 3.
	allocated := Allocate(schedule, decimal.NewFromInt(60000))

	third := allocated[2]
	require.Equal(t, domain.StatusPending, third.Status())

	got := DaysOverdue(allocated, third.DueDate.AddDate(0, 0, 1), "CO", nil, DefaultCalendar())
	assert.Equal(t, 0, got)
}
