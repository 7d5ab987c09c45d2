package doctor

import (
	"context"
	"sync"
	"time"

	"revalid/internal/revalidation/models"
	id "revalid/pkg/domain"
	"revalid/pkg/sentinel"
)

// InMemoryDoctorStore keeps doctor records in a mutex-guarded map. Used by
// unit tests and local development; the postgres store is the production
// implementation.
type InMemoryDoctorStore struct {
	mu      sync.RWMutex
	doctors map[id.GmcRef]*models.Doctor
}

func New() *InMemoryDoctorStore {
	return &InMemoryDoctorStore{
		doctors: make(map[id.GmcRef]*models.Doctor),
	}
}

func (s *InMemoryDoctorStore) Get(_ context.Context, ref id.GmcRef) (*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if d, exists := s.doctors[ref]; exists {
		return clone(d), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryDoctorStore) Upsert(_ context.Context, doctor *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doctors[doctor.GmcRef] = clone(doctor)
	return nil
}

func (s *InMemoryDoctorStore) FindByBody(_ context.Context, designatedBodyCode string) ([]*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Doctor
	for _, d := range s.doctors {
		if d.DesignatedBodyCode == designatedBodyCode {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

func (s *InMemoryDoctorStore) FindStale(_ context.Context, designatedBodyCode string, before time.Time) ([]*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Doctor
	for _, d := range s.doctors {
		if d.DesignatedBodyCode == designatedBodyCode && d.GmcLastUpdatedDateTime.Before(before) {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

// Disconnect re-reads the record under the write lock so the ownership and
// ordering guard always sees the latest committed state, never data a caller
// read earlier.
func (s *InMemoryDoctorStore) Disconnect(_ context.Context, ref id.GmcRef, designatedBodyCode string, requestTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, exists := s.doctors[ref]
	if !exists {
		return sentinel.ErrStaleWrite
	}
	if d.DesignatedBodyCode != designatedBodyCode {
		return sentinel.ErrStaleWrite
	}
	if !requestTime.After(d.GmcLastUpdatedDateTime) {
		return sentinel.ErrStaleWrite
	}

	updated := clone(d)
	updated.Disconnect(requestTime)
	updated.LastUpdatedDate = requestTime
	s.doctors[ref] = updated
	return nil
}

// clone guards against callers mutating shared map entries.
func clone(d *models.Doctor) *models.Doctor {
	copied := *d
	return &copied
}
