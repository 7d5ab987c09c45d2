// Package reference holds seeded reference data maintained outside this
// service. The deferral reason table mirrors the regulator's published list.
package reference

import (
	"revalid/internal/revalidation/ports"
)

// DeferralReasons is an in-memory directory of the regulator's deferral
// reasons. Reference data changes rarely and ships with releases; a store-
// backed directory can replace this behind the same interface if that stops
// being true.
type DeferralReasons struct {
	byCode map[string]*ports.DeferralReason
}

// NewDeferralReasons builds the directory from the seeded reason table.
func NewDeferralReasons() *DeferralReasons {
	d := &DeferralReasons{byCode: make(map[string]*ports.DeferralReason)}
	for _, reason := range seededReasons {
		d.byCode[reason.Code] = reason
	}
	return d
}

// ByCode resolves a deferral reason, or nil if the code is unknown.
func (d *DeferralReasons) ByCode(code string) *ports.DeferralReason {
	return d.byCode[code]
}

var seededReasons = []*ports.DeferralReason{
	{
		Code:              "1",
		Label:             "Insufficient evidence for a positive recommendation",
		RequiresSubReason: true,
		SubReasons: []string{
			"APPRAISAL_ACTIVITY",
			"COLLEAGUE_FEEDBACK",
			"PATIENT_FEEDBACK",
			"CPD",
			"QUALITY_IMPROVEMENT_ACTIVITY",
			"SIGNIFICANT_EVENTS",
			"INTERRUPTION_TO_PRACTICE",
		},
	},
	{
		Code:              "2",
		Label:             "The doctor is subject to an ongoing process",
		RequiresSubReason: false,
	},
}
