package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/user"
	"github.com/clinic/clinic/internal/platform/auth"
)

const maxReasonLength = 500

// ErrForbidden is returned when the caller is neither the patient nor the
// clinician on the appointment.
var ErrForbidden = errors.New("appointment does not belong to you")

// UserDirectory is the slice of the user service the appointment workflows
// need: clinician assignment on booking.
type UserDirectory interface {
	FirstByRole(ctx context.Context, role string) (*user.User, error)
}

// FileChecker reports whether a patient file exists. The accept flow uses it
// to tell the clinician a file still needs to be opened; the result never
// blocks the acceptance.
type FileChecker interface {
	Exists(ctx context.Context, patientID uuid.UUID) (bool, error)
}

// TxRunner executes fn as one atomic unit. The server wires db.WithTx here so
// a transition's read-check-update runs inside a single database transaction;
// a nil runner executes fn directly.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	appointments Repository
	users        UserDirectory
	files        FileChecker
	tx           TxRunner
}

func NewService(appointments Repository, users UserDirectory, files FileChecker, tx TxRunner) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{appointments: appointments, users: users, files: files, tx: tx}
}

// Create books a new appointment for the patient. The clinic assigns the
// longest-standing clinician; every appointment starts out SCHEDULED.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, patientUsername string, scheduledAt time.Time, reason string) (*Appointment, error) {
	if scheduledAt.IsZero() {
		return nil, fmt.Errorf("appointment date is required")
	}
	if !scheduledAt.After(time.Now()) {
		return nil, fmt.Errorf("appointment date must be in the future")
	}
	if len(reason) > maxReasonLength {
		return nil, fmt.Errorf("reason must be at most %d characters", maxReasonLength)
	}

	medecin, err := s.users.FirstByRole(ctx, auth.RoleMedecin)
	if err != nil {
		return nil, fmt.Errorf("no clinician available")
	}

	a := &Appointment{
		PatientID:       patientID,
		PatientUsername: patientUsername,
		MedecinID:       medecin.ID,
		MedecinUsername: medecin.Username,
		ScheduledAt:     scheduledAt,
		Reason:          reason,
		Status:          StatusScheduled,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns the appointment if the requester is a party to it.
func (s *Service) Get(ctx context.Context, id, requesterID uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PatientID != requesterID && a.MedecinID != requesterID {
		return nil, ErrForbidden
	}
	return a, nil
}

// Accept confirms a pending appointment. It also reports whether a patient
// file already exists for the patient, so the clinician can be prompted to
// open one; a missing file never blocks the acceptance.
func (s *Service) Accept(ctx context.Context, id, medecinID uuid.UUID) (*Appointment, bool, error) {
	var a *Appointment
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.ownedByMedecin(ctx, id, medecinID)
		if err != nil {
			return err
		}
		if err := canDecide(a.Status); err != nil {
			return err
		}
		return s.appointments.UpdateStatus(ctx, a.ID, StatusConfirmed)
	})
	if err != nil {
		return nil, false, err
	}
	a.Status = StatusConfirmed

	fileExists := false
	if s.files != nil {
		// Advisory only. A lookup failure reads as "no file yet".
		if ok, err := s.files.Exists(ctx, a.PatientID); err == nil {
			fileExists = ok
		}
	}
	return a, fileExists, nil
}

// Reject declines a pending appointment.
func (s *Service) Reject(ctx context.Context, id, medecinID uuid.UUID) (*Appointment, error) {
	var a *Appointment
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.ownedByMedecin(ctx, id, medecinID)
		if err != nil {
			return err
		}
		if err := canDecide(a.Status); err != nil {
			return err
		}
		return s.appointments.UpdateStatus(ctx, a.ID, StatusRejected)
	})
	if err != nil {
		return nil, err
	}
	a.Status = StatusRejected
	return a, nil
}

// Complete closes out a confirmed appointment after the visit.
func (s *Service) Complete(ctx context.Context, id, medecinID uuid.UUID) (*Appointment, error) {
	var a *Appointment
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.ownedByMedecin(ctx, id, medecinID)
		if err != nil {
			return err
		}
		if err := canComplete(a.Status); err != nil {
			return err
		}
		return s.appointments.UpdateStatus(ctx, a.ID, StatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	a.Status = StatusCompleted
	return a, nil
}

// Cancel lets the patient call off an appointment that has not yet run.
func (s *Service) Cancel(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error) {
	var a *Appointment
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.ownedByPatient(ctx, id, patientID)
		if err != nil {
			return err
		}
		if err := canCancel(a.Status); err != nil {
			return err
		}
		return s.appointments.UpdateStatus(ctx, a.ID, StatusCancelled)
	})
	if err != nil {
		return nil, err
	}
	a.Status = StatusCancelled
	return a, nil
}

// Reschedule moves an appointment to a new date and puts it back in the
// clinician's decision queue. An empty reason keeps the original one.
func (s *Service) Reschedule(ctx context.Context, id, patientID uuid.UUID, newDate time.Time, reason string) (*Appointment, error) {
	if newDate.IsZero() {
		return nil, fmt.Errorf("appointment date is required")
	}
	if !newDate.After(time.Now()) {
		return nil, fmt.Errorf("appointment date must be in the future")
	}
	if len(reason) > maxReasonLength {
		return nil, fmt.Errorf("reason must be at most %d characters", maxReasonLength)
	}
	var a *Appointment
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.ownedByPatient(ctx, id, patientID)
		if err != nil {
			return err
		}
		if err := canReschedule(a.Status); err != nil {
			return err
		}
		if reason != "" {
			a.Reason = reason
		}
		return s.appointments.UpdateSchedule(ctx, a.ID, newDate, a.Reason, StatusRescheduled)
	})
	if err != nil {
		return nil, err
	}
	a.ScheduledAt = newDate
	a.Status = StatusRescheduled
	return a, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListForMedecin(ctx context.Context, medecinID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByMedecin(ctx, medecinID, limit, offset)
}

// Stats aggregates the clinician's appointment counts. Pending covers both
// fresh and rescheduled bookings; accepted maps to CONFIRMED.
func (s *Service) Stats(ctx context.Context, medecinID uuid.UUID) (*Stats, error) {
	counts, err := s.appointments.CountByStatus(ctx, medecinID)
	if err != nil {
		return nil, err
	}
	st := &Stats{
		Pending:   counts[StatusScheduled] + counts[StatusRescheduled],
		Accepted:  counts[StatusConfirmed],
		Rejected:  counts[StatusRejected],
		Completed: counts[StatusCompleted],
	}
	for _, n := range counts {
		st.Total += n
	}
	return st, nil
}

func (s *Service) ownedByMedecin(ctx context.Context, id, medecinID uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.MedecinID != medecinID {
		return nil, ErrForbidden
	}
	return a, nil
}

func (s *Service) ownedByPatient(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PatientID != patientID {
		return nil, ErrForbidden
	}
	return a, nil
}
