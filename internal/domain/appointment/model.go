package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment maps to the appointments table. The patient and clinician
// usernames are denormalized so lists render without a join per row.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	PatientUsername string    `db:"patient_username" json:"patientUsername"`
	MedecinID       uuid.UUID `db:"medecin_id" json:"medecin_id"`
	MedecinUsername string    `db:"medecin_username" json:"medecinUsername"`
	ScheduledAt     time.Time `db:"scheduled_at" json:"appointmentDate"`
	Reason          string    `db:"reason" json:"reason"`
	Status          Status    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Stats is the clinician dashboard projection, recomputed from the live
// appointment list on every read.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Completed int `json:"completed"`
}
