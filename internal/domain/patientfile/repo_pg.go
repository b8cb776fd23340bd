package patientfile

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const fileCols = `id, patient_id, medecin_id, first_name, last_name, date_of_birth, gender, phone, email, address,
	blood_type, allergies, current_medications, medical_history, family_medical_history,
	dental_history, current_dental_issues, previous_treatments, dental_notes, consultation_notes,
	created_at, updated_at`

func (r *repoPG) scanFile(row pgx.Row) (*PatientFile, error) {
	var f PatientFile
	err := row.Scan(&f.ID, &f.PatientID, &f.MedecinID, &f.FirstName, &f.LastName, &f.DateOfBirth,
		&f.Gender, &f.Phone, &f.Email, &f.Address,
		&f.BloodType, &f.Allergies, &f.CurrentMedications, &f.MedicalHistory, &f.FamilyMedicalHistory,
		&f.DentalHistory, &f.CurrentDentalIssues, &f.PreviousTreatments, &f.DentalNotes, &f.ConsultationNotes,
		&f.CreatedAt, &f.UpdatedAt)
	return &f, err
}

func (r *repoPG) Create(ctx context.Context, f *PatientFile) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_files (id, patient_id, medecin_id, first_name, last_name, date_of_birth, gender, phone, email, address,
			blood_type, allergies, current_medications, medical_history, family_medical_history,
			dental_history, current_dental_issues, previous_treatments, dental_notes, consultation_notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		f.ID, f.PatientID, f.MedecinID, f.FirstName, f.LastName, f.DateOfBirth, f.Gender, f.Phone, f.Email, f.Address,
		f.BloodType, f.Allergies, f.CurrentMedications, f.MedicalHistory, f.FamilyMedicalHistory,
		f.DentalHistory, f.CurrentDentalIssues, f.PreviousTreatments, f.DentalNotes, f.ConsultationNotes)
	return err
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*PatientFile, error) {
	return r.scanFile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+fileCols+` FROM patient_files WHERE patient_id = $1`, patientID))
}

func (r *repoPG) Update(ctx context.Context, f *PatientFile) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_files SET
			first_name = $2, last_name = $3, date_of_birth = $4, gender = $5, phone = $6, email = $7, address = $8,
			blood_type = $9, allergies = $10, current_medications = $11, medical_history = $12, family_medical_history = $13,
			dental_history = $14, current_dental_issues = $15, previous_treatments = $16, dental_notes = $17, consultation_notes = $18,
			updated_at = now()
		WHERE patient_id = $1`,
		f.PatientID, f.FirstName, f.LastName, f.DateOfBirth, f.Gender, f.Phone, f.Email, f.Address,
		f.BloodType, f.Allergies, f.CurrentMedications, f.MedicalHistory, f.FamilyMedicalHistory,
		f.DentalHistory, f.CurrentDentalIssues, f.PreviousTreatments, f.DentalNotes, f.ConsultationNotes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*PatientFile, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient_files`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+fileCols+` FROM patient_files ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*PatientFile
	for rows.Next() {
		f, err := r.scanFile(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, nil
}

func (r *repoPG) ExistsByPatient(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient_files WHERE patient_id = $1)`, patientID).Scan(&exists)
	return exists, err
}
