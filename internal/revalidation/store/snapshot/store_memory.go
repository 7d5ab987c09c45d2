package snapshot

import (
	"context"
	"sort"
	"sync"

	"revalid/internal/revalidation/models"
	id "revalid/pkg/domain"
)

// InMemorySnapshotArchive holds archived recommendations per doctor.
// Append-only: nothing here ever mutates or removes a stored snapshot.
type InMemorySnapshotArchive struct {
	mu        sync.RWMutex
	snapshots map[id.GmcRef][]*models.Snapshot
}

func New() *InMemorySnapshotArchive {
	return &InMemorySnapshotArchive{
		snapshots: make(map[id.GmcRef][]*models.Snapshot),
	}
}

func (s *InMemorySnapshotArchive) Append(_ context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *snap
	copied.Comments = append([]string(nil), snap.Comments...)
	s.snapshots[snap.GmcRef] = append(s.snapshots[snap.GmcRef], &copied)
	return nil
}

func (s *InMemorySnapshotArchive) FindByDoctor(_ context.Context, ref id.GmcRef) ([]*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.snapshots[ref]
	out := make([]*models.Snapshot, 0, len(stored))
	for _, snap := range stored {
		copied := *snap
		copied.Comments = append([]string(nil), snap.Comments...)
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ActualSubmissionDate.Equal(out[j].ActualSubmissionDate) {
			return out[i].ActualSubmissionDate.After(out[j].ActualSubmissionDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
