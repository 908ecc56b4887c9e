package engine

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fieldcollect/collection-engine/internal/domain"
	apperrors "github.com/fieldcollect/collection-engine/pkg/errors"
	"github.com/fieldcollect/collection-engine/pkg/utils"
)

// MaxExclusionSkips bounds the holiday-skip loop so generation terminates
// even under a pathological custom-holiday set. When the bound is hit the
// installment keeps its unskipped due date instead of failing the loan.
const MaxExclusionSkips = 45

// Generate builds the full installment schedule for the given terms.
// Face amounts for installments 1..count-1 are the rounded-up per-installment
// value; the last installment absorbs the remainder so the schedule sums to
// the total amount exactly. The schedule is returned whole or not at all.
func Generate(terms domain.LoanTerms, cal *Calendar) ([]domain.Installment, error) {
	if err := ValidateTerms(terms); err != nil {
		return nil, err
	}

	total := terms.TotalAmount()
	count := int64(terms.Installments)
	face := total.Div(decimal.NewFromInt(count)).RoundCeil(2)
	custom := NewDateSet(terms.CustomHolidays)

	installments := make([]domain.Installment, 0, terms.Installments)
	cursor := utils.DateOnly(terms.StartDate)

	for number := 1; number <= terms.Installments; number++ {
		cursor = step(cursor, terms.Frequency)

		due := cursor
		skips := 0
		for cal.IsExcluded(due, terms.Jurisdiction, custom) {
			if skips == MaxExclusionSkips {
				logrus.WithFields(logrus.Fields{
					"installment":  number,
					"jurisdiction": terms.Jurisdiction,
					"due_date":     utils.FormatDate(cursor),
				}).Warn("exclusion skip bound exhausted, keeping unskipped due date")
				due = cursor
				break
			}
			due = due.AddDate(0, 0, 1)
			skips++
		}
		cursor = due

		amount := face
		if number == terms.Installments {
			amount = total.Sub(face.Mul(decimal.NewFromInt(count - 1)))
		}

		installments = append(installments, domain.Installment{
			Number:     number,
			Amount:     amount,
			DueDate:    due,
			PaidAmount: decimal.Zero,
		})
	}

	return installments, nil
}

// ValidateTerms rejects malformed loan terms before any installment is
// produced.
func ValidateTerms(terms domain.LoanTerms) error {
	switch {
	case !terms.Principal.IsPositive():
		return apperrors.WrapInvalidTerms("principal must be positive")
	case terms.InterestRate.IsNegative():
		return apperrors.WrapInvalidTerms("interest rate cannot be negative")
	case terms.Installments <= 0:
		return apperrors.WrapInvalidTerms("installment count must be positive")
	case terms.StartDate.IsZero():
		return apperrors.WrapInvalidTerms("start date is required")
	}
	switch terms.Frequency {
	case domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyBiweekly, domain.FrequencyMonthly:
		return nil
	}
	return apperrors.WrapInvalidTerms("unknown frequency " + terms.Frequency)
}

// step advances the due-date cursor by one frequency period. Monthly moves
// by calendar month, not a fixed day count.
func step(t time.Time, frequency string) time.Time {
	switch frequency {
	case domain.FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case domain.FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case domain.FrequencyBiweekly:
		return t.AddDate(0, 0, 15)
	case domain.FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	}
	return t
}
