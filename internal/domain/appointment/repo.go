package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByMedecin(ctx context.Context, medecinID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time, reason string, status Status) error
	CountByStatus(ctx context.Context, medecinID uuid.UUID) (map[Status]int, error)
}
