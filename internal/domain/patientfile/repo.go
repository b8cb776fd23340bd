package patientfile

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, f *PatientFile) error
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*PatientFile, error)
	Update(ctx context.Context, f *PatientFile) error
	List(ctx context.Context, limit, offset int) ([]*PatientFile, int, error)
	ExistsByPatient(ctx context.Context, patientID uuid.UUID) (bool, error)
}
