package models

import (
	"time"

	id "revalid/pkg/domain"
)

// DoctorStatus is derived from the doctor's most recent recommendation.
// It is a pure function of (recommendation type, outcome, under-notice flag)
// and is recomputed on every mutation, never cached independently.
type DoctorStatus string

const (
	DoctorStatusNotStarted     DoctorStatus = "NOT_STARTED"
	DoctorStatusDraft          DoctorStatus = "DRAFT"
	DoctorStatusSubmittedToGmc DoctorStatus = "SUBMITTED_TO_GMC"
	DoctorStatusCompleted      DoctorStatus = "COMPLETED"
)

// UnderNotice is the regulator's tri-state flag for whether the doctor is due
// a revalidation recommendation this cycle.
type UnderNotice string

const (
	UnderNoticeYes    UnderNotice = "YES"
	UnderNoticeNo     UnderNotice = "NO"
	UnderNoticeOnHold UnderNotice = "ON_HOLD"
)

// Doctor is the single source of truth for a doctor's connection and derived
// revalidation status.
//
// Invariants:
//   - GmcRef is immutable after creation
//   - Doctors are never hard-deleted; disconnection clears DesignatedBodyCode
//     and ExistsInGmc instead
//   - Connection fields (DesignatedBodyCode, ExistsInGmc, GmcLastUpdatedDateTime)
//     are mutated only by the connection engine
//   - Status is mutated only by the recommendation engine
//
// GmcLastUpdatedDateTime is the causal ordering token for connection changes:
// every roster application stamps it with the collection's request time, and a
// disconnect sweep may only win if its request time is strictly newer.
type Doctor struct {
	GmcRef                 id.GmcRef    `json:"gmc_ref"`
	FirstName              string       `json:"first_name"`
	LastName               string       `json:"last_name"`
	SubmissionDate         time.Time    `json:"submission_date"`
	UnderNotice            UnderNotice  `json:"under_notice"`
	Sanction               string       `json:"sanction"`
	DesignatedBodyCode     string       `json:"designated_body_code"`
	ExistsInGmc            bool         `json:"exists_in_gmc"`
	Admin                  string       `json:"admin"`
	Status                 DoctorStatus `json:"doctor_status"`
	LastUpdatedDate        time.Time    `json:"last_updated_date"`
	GmcLastUpdatedDateTime time.Time    `json:"gmc_last_updated_date_time"`
}

// Connected reports whether the doctor is currently connected to any
// designated body.
func (d *Doctor) Connected() bool {
	return d.DesignatedBodyCode != ""
}

// Disconnect clears the doctor's connection as of requestTime. Callers must
// have verified ownership and ordering first (see DoctorStore.Disconnect).
func (d *Doctor) Disconnect(requestTime time.Time) {
	d.DesignatedBodyCode = ""
	d.ExistsInGmc = false
	d.GmcLastUpdatedDateTime = requestTime
}
