package models

// DeriveStatus computes a doctor's derived status from their most recent
// recommendation. It is a pure function recomputed on every mutation; the
// stored doctor_status column is only ever a cache of this result.
//
// With no recommendation at all the doctor is NOT_STARTED, unless the
// regulator feed explicitly marks them not under notice, in which case no
// action is required this cycle and the status is COMPLETED.
func DeriveStatus(underNotice UnderNotice, latest *Recommendation) DoctorStatus {
	if latest == nil || latest.Type == "" {
		if underNotice == UnderNoticeNo {
			return DoctorStatusCompleted
		}
		return DoctorStatusNotStarted
	}
	switch latest.Outcome {
	case "":
		return DoctorStatusDraft
	case OutcomeUnderReview:
		return DoctorStatusSubmittedToGmc
	default:
		return DoctorStatusCompleted
	}
}

// MostRecent picks the newest record by ActualSubmissionDate across a
// doctor's live recommendations and archived snapshots. Equal dates fall
// back to id order so the choice is deterministic.
func MostRecent(live []*Recommendation, archived []*Snapshot) *Recommendation {
	var latest *Recommendation
	for _, r := range live {
		if newerRecommendation(r, latest) {
			latest = r
		}
	}
	for _, s := range archived {
		candidate := &Recommendation{
			ID:                   s.ID,
			Type:                 s.Type,
			Status:               s.Status,
			Outcome:              s.Outcome,
			ActualSubmissionDate: s.ActualSubmissionDate,
		}
		if newerRecommendation(candidate, latest) {
			latest = candidate
		}
	}
	return latest
}

func newerRecommendation(candidate, current *Recommendation) bool {
	if current == nil {
		return true
	}
	if !candidate.ActualSubmissionDate.Equal(current.ActualSubmissionDate) {
		return candidate.ActualSubmissionDate.After(current.ActualSubmissionDate)
	}
	return candidate.ID.String() < current.ID.String()
}
