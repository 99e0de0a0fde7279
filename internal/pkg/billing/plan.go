package billing

import (
	"strings"

	"github.com/ManuelReschke/FreshFox/app/models"
)

const planReferencePrefix = "plan:"

// normalizeFrequency maps plan values and gateway cycle names onto the
// frequencies a grocery plan can have.
func normalizeFrequency(frequency string) string {
	switch strings.ToLower(strings.TrimSpace(frequency)) {
	case models.BillingFrequencyWeekly:
		return models.BillingFrequencyWeekly
	case models.BillingFrequencyBiweekly, "fortnightly":
		return models.BillingFrequencyBiweekly
	case models.BillingFrequencyMonthly:
		return models.BillingFrequencyMonthly
	default:
		return ""
	}
}

// planSlugFromReference extracts the plan slug the checkout stored in the
// gateway external reference, either "plan:<slug>" or a bare slug.
func planSlugFromReference(externalReference string) string {
	ref := strings.TrimSpace(externalReference)
	if len(ref) >= len(planReferencePrefix) && strings.EqualFold(ref[:len(planReferencePrefix)], planReferencePrefix) {
		ref = ref[len(planReferencePrefix):]
	}
	return strings.ToLower(strings.TrimSpace(ref))
}
