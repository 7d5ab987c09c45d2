// Package domain holds typed identifiers shared across subsystems.
//
// IDs are distinct named types so the compiler rejects cross-type assignment
// (passing a RecommendationID where a GmcRef is expected is a compile error).
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "revalid/pkg/domain-errors"
)

// GmcRef is the regulator-issued reference number identifying a doctor.
// It is opaque and immutable; the regulator owns its format.
type GmcRef string

// ParseGmcRef validates a GMC reference from an untrusted source.
// The only local invariant is non-emptiness: the regulator owns the format.
func ParseGmcRef(s string) (GmcRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "gmc reference is required")
	}
	return GmcRef(s), nil
}

func (r GmcRef) String() string {
	return string(r)
}

// IsNil returns true if the reference is empty.
func (r GmcRef) IsNil() bool {
	return r == ""
}

// RecommendationID identifies a recommendation document.
type RecommendationID uuid.UUID

// NewRecommendationID generates a fresh recommendation ID.
func NewRecommendationID() RecommendationID {
	return RecommendationID(uuid.New())
}

// ParseRecommendationID validates an ID string from an untrusted source.
// IDs must be valid, non-nil UUIDs.
func ParseRecommendationID(s string) (RecommendationID, error) {
	if s == "" {
		return RecommendationID{}, dErrors.New(dErrors.CodeInvalidInput, "recommendation id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return RecommendationID{}, dErrors.New(dErrors.CodeInvalidInput, "recommendation id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return RecommendationID{}, dErrors.New(dErrors.CodeInvalidInput, "recommendation id must not be nil")
	}
	return RecommendationID(parsed), nil
}

func (id RecommendationID) String() string {
	return uuid.UUID(id).String()
}

// IsNil returns true if the ID is the zero UUID.
func (id RecommendationID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText renders the ID in canonical UUID form for JSON and logging.
func (id RecommendationID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(id).String()), nil
}

// UnmarshalText parses an ID from canonical UUID form.
func (id *RecommendationID) UnmarshalText(text []byte) error {
	parsed, err := ParseRecommendationID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
