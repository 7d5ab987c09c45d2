package models

import (
	"time"

	id "revalid/pkg/domain"
)

// RosterEntry is one doctor as reported by a designated body's collection job.
type RosterEntry struct {
	GmcRef         id.GmcRef   `json:"gmc_ref"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	SubmissionDate time.Time   `json:"submission_date"`
	UnderNotice    UnderNotice `json:"under_notice"`
	Sanction       string      `json:"sanction"`
}

// RosterCollectedEvent is the full roster one collection job reports for one
// designated body as of RequestDateTime. Delivery is at-least-once; applying
// the same event twice must leave the store in the same state as applying it
// once.
type RosterCollectedEvent struct {
	DesignatedBodyCode string        `json:"designated_body_code"`
	RequestDateTime    time.Time     `json:"request_date_time"`
	Doctors            []RosterEntry `json:"doctors"`
}
