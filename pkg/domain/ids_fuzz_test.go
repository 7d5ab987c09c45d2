//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseRecommendationID tests that parsing never panics on arbitrary
// input and that accepted IDs round-trip through their string form.
func FuzzParseRecommendationID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseRecommendationID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseRecommendationID(id.String())
		if err != nil {
			t.Errorf("accepted ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
	})
}

// FuzzParseGmcRef checks the trust boundary on regulator references:
// whatever is accepted must be non-empty and stable under re-parsing.
func FuzzParseGmcRef(f *testing.F) {
	f.Add("")
	f.Add("7012345")
	f.Add("  7012345  ")
	f.Add("'; DROP TABLE doctors;--")

	f.Fuzz(func(t *testing.T, input string) {
		ref, err := ParseGmcRef(input)
		if err != nil {
			return
		}
		if ref.IsNil() {
			t.Error("accepted reference is empty")
		}
		roundTrip, err := ParseGmcRef(ref.String())
		if err != nil {
			t.Errorf("accepted reference failed round-trip: %v", err)
		}
		if roundTrip != ref {
			t.Error("round-trip changed reference value")
		}
	})
}
