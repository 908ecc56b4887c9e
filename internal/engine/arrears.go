package engine

import (
	"time"

	"github.com/fieldcollect/collection-engine/internal/domain"
	"github.com/fieldcollect/collection-engine/pkg/utils"
)

// DaysOverdue returns how many non-excluded days the oldest unpaid
// installment is past due as of today. The count covers the days strictly
// between the due date and today, skipping rest days and holidays, so a
// default caught on the next collection day still reads as zero. Today is
// always injected by the caller, already resolved to the loan's local date.
func DaysOverdue(installments []domain.Installment, today time.Time, jurisdiction string, custom DateSet, cal *Calendar) int {
	var firstUnpaid *domain.Installment
	for i := range installments {
		if installments[i].Status() != domain.StatusPaid {
			firstUnpaid = &installments[i]
			break
		}
	}
	if firstUnpaid == nil {
		return 0
	}

	due := utils.DateOnly(firstUnpaid.DueDate)
	asOf := utils.DateOnly(today)
	if !due.Before(asOf) {
		return 0
	}

	days := 0
	for d := due.AddDate(0, 0, 1); d.Before(asOf); d = d.AddDate(0, 0, 1) {
		if !cal.IsExcluded(d, jurisdiction, custom) {
			days++
		}
	}
	return days
}
