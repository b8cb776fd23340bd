package patientfile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	files Repository
}

func NewService(files Repository) *Service {
	return &Service{files: files}
}

// Create opens a file for a patient. A patient has at most one file; a
// second create is refused.
func (s *Service) Create(ctx context.Context, f *PatientFile) error {
	if f.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if f.FirstName == "" || f.LastName == "" {
		return fmt.Errorf("first and last name are required")
	}
	exists, err := s.files.ExistsByPatient(ctx, f.PatientID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("patient file already exists for this patient")
	}
	return s.files.Create(ctx, f)
}

// GetMine returns the patient's own file.
func (s *Service) GetMine(ctx context.Context, patientID uuid.UUID) (*PatientFile, error) {
	return s.files.GetByPatient(ctx, patientID)
}

func (s *Service) GetByPatient(ctx context.Context, patientID uuid.UUID) (*PatientFile, error) {
	return s.files.GetByPatient(ctx, patientID)
}

// Update rewrites the intake fields of an existing file. The file's identity
// fields (patient, clinician) are not touched.
func (s *Service) Update(ctx context.Context, f *PatientFile) error {
	if f.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	return s.files.Update(ctx, f)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*PatientFile, int, error) {
	return s.files.List(ctx, limit, offset)
}

// Exists reports whether the patient already has a file. The appointment
// accept flow uses this to prompt the clinician.
func (s *Service) Exists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return s.files.ExistsByPatient(ctx, patientID)
}
