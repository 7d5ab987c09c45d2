package connection

import (
	"context"

	"revalid/internal/revalidation/models"
	dErrors "revalid/pkg/domain-errors"
)

// DoctorsByBody returns every doctor currently connected to the designated
// body, for case-admin worklists.
func (s *Service) DoctorsByBody(ctx context.Context, designatedBodyCode string) ([]*models.Doctor, error) {
	if designatedBodyCode == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "designated body code is required")
	}

	doctors, err := s.doctors.FindByBody(ctx, designatedBodyCode)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list doctors")
	}
	return doctors, nil
}
