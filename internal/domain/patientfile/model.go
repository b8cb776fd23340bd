package patientfile

import (
	"time"

	"github.com/google/uuid"
)

// PatientFile maps to the patient_files table. One file per patient; it
// gathers the demographic, medical and dental intake the clinic keeps on
// record.
type PatientFile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patientId"`
	MedecinID uuid.UUID `db:"medecin_id" json:"medecinId"`

	FirstName   string     `db:"first_name" json:"firstName"`
	LastName    string     `db:"last_name" json:"lastName"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	Gender      string     `db:"gender" json:"gender,omitempty"`
	Phone       string     `db:"phone" json:"phone,omitempty"`
	Email       string     `db:"email" json:"email,omitempty"`
	Address     string     `db:"address" json:"address,omitempty"`

	BloodType            string `db:"blood_type" json:"bloodType,omitempty"`
	Allergies            string `db:"allergies" json:"allergies,omitempty"`
	CurrentMedications   string `db:"current_medications" json:"currentMedications,omitempty"`
	MedicalHistory       string `db:"medical_history" json:"medicalHistory,omitempty"`
	FamilyMedicalHistory string `db:"family_medical_history" json:"familyMedicalHistory,omitempty"`

	DentalHistory       string `db:"dental_history" json:"dentalHistory,omitempty"`
	CurrentDentalIssues string `db:"current_dental_issues" json:"currentDentalIssues,omitempty"`
	PreviousTreatments  string `db:"previous_treatments" json:"previousTreatments,omitempty"`
	DentalNotes         string `db:"dental_notes" json:"dentalNotes,omitempty"`
	ConsultationNotes   string `db:"consultation_notes" json:"consultationNotes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
