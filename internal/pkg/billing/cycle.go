package billing

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/ManuelReschke/FreshFox/app/models"
)

func recurrenceFor(anchor time.Time, frequency string) (*rrule.RRule, error) {
	opt := rrule.ROption{Dtstart: anchor}
	switch normalizeFrequency(frequency) {
	case models.BillingFrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case models.BillingFrequencyBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case models.BillingFrequencyMonthly:
		opt.Freq = rrule.MONTHLY
		// Cycles anchored past the 28th stay on the last day of the month
		// instead of skipping short months.
		if anchor.Day() > 28 {
			opt.Bymonthday = []int{-1}
		}
	default:
		return nil, fmt.Errorf("unsupported billing frequency %q", frequency)
	}
	return rrule.NewRRule(opt)
}

// NextChargeDate returns the charge date one billing period after from.
// The result is always strictly after from.
func NextChargeDate(from time.Time, frequency string) (time.Time, error) {
	rule, err := recurrenceFor(from, frequency)
	if err != nil {
		return time.Time{}, err
	}
	monthly := normalizeFrequency(frequency) == models.BillingFrequencyMonthly
	for _, next := range rule.Between(from, from.AddDate(0, 3, 0), false) {
		if monthly && next.Year() == from.Year() && next.Month() == from.Month() {
			continue
		}
		return next, nil
	}
	return time.Time{}, fmt.Errorf("no charge date after %s for frequency %q", from.Format(time.RFC3339), frequency)
}
