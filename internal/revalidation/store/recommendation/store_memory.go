package recommendation

import (
	"context"
	"sort"
	"sync"

	"revalid/internal/revalidation/models"
	id "revalid/pkg/domain"
	"revalid/pkg/sentinel"
)

// InMemoryRecommendationStore keeps recommendation documents in a
// mutex-guarded map keyed by recommendation id.
type InMemoryRecommendationStore struct {
	mu   sync.RWMutex
	recs map[id.RecommendationID]*models.Recommendation
}

func New() *InMemoryRecommendationStore {
	return &InMemoryRecommendationStore{
		recs: make(map[id.RecommendationID]*models.Recommendation),
	}
}

func (s *InMemoryRecommendationStore) FindByID(_ context.Context, recID id.RecommendationID) (*models.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, exists := s.recs[recID]; exists {
		return clone(r), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryRecommendationStore) Save(_ context.Context, rec *models.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recs[rec.ID] = clone(rec)
	return nil
}

func (s *InMemoryRecommendationStore) FindLiveByDoctor(_ context.Context, ref id.GmcRef) ([]*models.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Recommendation
	for _, r := range s.recs {
		if r.GmcRef == ref && r.IsLive() {
			out = append(out, clone(r))
		}
	}
	sortByRecency(out)
	return out, nil
}

func (s *InMemoryRecommendationStore) FindSubmitted(_ context.Context) ([]*models.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Recommendation
	for _, r := range s.recs {
		if r.Status == models.StatusSubmittedToGmc && r.Outcome == models.OutcomeUnderReview {
			out = append(out, clone(r))
		}
	}
	sortByRecency(out)
	return out, nil
}

// sortByRecency orders newest ActualSubmissionDate first; equal dates fall
// back to id order so the result is deterministic.
func sortByRecency(recs []*models.Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].ActualSubmissionDate.Equal(recs[j].ActualSubmissionDate) {
			return recs[i].ActualSubmissionDate.After(recs[j].ActualSubmissionDate)
		}
		return recs[i].ID.String() < recs[j].ID.String()
	})
}

func clone(r *models.Recommendation) *models.Recommendation {
	copied := *r
	copied.Comments = append([]string(nil), r.Comments...)
	return &copied
}
