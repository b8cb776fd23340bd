package appointment

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/domain/user"
	"github.com/clinic/clinic/internal/platform/auth"
)

// -- Mocks --

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return m.list(func(a *Appointment) bool { return a.PatientID == patientID })
}

func (m *mockRepo) ListByMedecin(_ context.Context, medecinID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return m.list(func(a *Appointment) bool { return a.MedecinID == medecinID })
}

func (m *mockRepo) list(match func(*Appointment) bool) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		if match(a) {
			items = append(items, a)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ScheduledAt.After(items[j].ScheduledAt) })
	return items, len(items), nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	a, ok := m.appointments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepo) UpdateSchedule(_ context.Context, id uuid.UUID, scheduledAt time.Time, reason string, status Status) error {
	a, ok := m.appointments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.ScheduledAt = scheduledAt
	a.Reason = reason
	a.Status = status
	a.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepo) CountByStatus(_ context.Context, medecinID uuid.UUID) (map[Status]int, error) {
	counts := make(map[Status]int)
	for _, a := range m.appointments {
		if a.MedecinID == medecinID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

type mockUsers struct {
	medecin *user.User
}

func (m *mockUsers) FirstByRole(_ context.Context, role string) (*user.User, error) {
	if m.medecin == nil || m.medecin.Role != role {
		return nil, errors.New("not found")
	}
	return m.medecin, nil
}

type mockFiles struct {
	exists map[uuid.UUID]bool
	err    error
}

func (m *mockFiles) Exists(_ context.Context, patientID uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.exists[patientID], nil
}

// -- Fixtures --

var (
	testMedecinID = uuid.New()
	testPatientID = uuid.New()
)

func newTestService(repo *mockRepo, files *mockFiles) *Service {
	users := &mockUsers{medecin: &user.User{ID: testMedecinID, Username: "dr-house", Role: auth.RoleMedecin}}
	if files == nil {
		files = &mockFiles{exists: make(map[uuid.UUID]bool)}
	}
	return NewService(repo, users, files, nil)
}

func seedAppointment(repo *mockRepo, status Status) *Appointment {
	a := &Appointment{
		ID:              uuid.New(),
		PatientID:       testPatientID,
		PatientUsername: "alice",
		MedecinID:       testMedecinID,
		MedecinUsername: "dr-house",
		ScheduledAt:     time.Now().Add(48 * time.Hour),
		Status:          status,
	}
	repo.appointments[a.ID] = a
	return a
}

// -- Create --

func TestCreate(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	a, err := svc.Create(context.Background(), testPatientID, "alice", time.Now().Add(24*time.Hour), "toothache")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", a.Status)
	}
	if a.MedecinID != testMedecinID || a.MedecinUsername != "dr-house" {
		t.Error("expected the default clinician to be assigned")
	}
	if a.PatientUsername != "alice" {
		t.Errorf("expected patient username alice, got %s", a.PatientUsername)
	}
}

func TestCreate_PastDate(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	if _, err := svc.Create(context.Background(), testPatientID, "alice", time.Now().Add(-time.Hour), ""); err == nil {
		t.Fatal("expected error for past date")
	}
}

func TestCreate_ReasonTooLong(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	long := make([]byte, maxReasonLength+1)
	for i := range long {
		long[i] = 'x'
	}
	if _, err := svc.Create(context.Background(), testPatientID, "alice", time.Now().Add(time.Hour), string(long)); err == nil {
		t.Fatal("expected error for oversized reason")
	}
}

func TestCreate_NoClinician(t *testing.T) {
	svc := NewService(newMockRepo(), &mockUsers{}, &mockFiles{}, nil)
	if _, err := svc.Create(context.Background(), testPatientID, "alice", time.Now().Add(time.Hour), ""); err == nil {
		t.Fatal("expected error when no clinician exists")
	}
}

// -- Accept / Reject / Complete --

func TestAccept(t *testing.T) {
	repo := newMockRepo()
	files := &mockFiles{exists: map[uuid.UUID]bool{testPatientID: true}}
	svc := newTestService(repo, files)
	a := seedAppointment(repo, StatusScheduled)

	got, fileExists, err := svc.Accept(context.Background(), a.ID, testMedecinID)
	if err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	if got.Status != StatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", got.Status)
	}
	if !fileExists {
		t.Error("expected patient file to be reported as existing")
	}
}

func TestAccept_NoPatientFile(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	a := seedAppointment(repo, StatusRescheduled)

	got, fileExists, err := svc.Accept(context.Background(), a.ID, testMedecinID)
	if err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	if got.Status != StatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", got.Status)
	}
	if fileExists {
		t.Error("expected no patient file")
	}
}

func TestAccept_FileLookupFailureDoesNotBlock(t *testing.T) {
	repo := newMockRepo()
	files := &mockFiles{err: errors.New("db down")}
	svc := newTestService(repo, files)
	a := seedAppointment(repo, StatusScheduled)

	got, fileExists, err := svc.Accept(context.Background(), a.ID, testMedecinID)
	if err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	if got.Status != StatusConfirmed || fileExists {
		t.Error("a file lookup failure must read as no file and not block acceptance")
	}
}

func TestAccept_WrongStatus(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	for _, s := range []Status{StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted} {
		a := seedAppointment(repo, s)
		_, _, err := svc.Accept(context.Background(), a.ID, testMedecinID)
		var se StateError
		if !errors.As(err, &se) {
			t.Errorf("%s: expected StateError, got %v", s, err)
		}
	}
}

func TestAccept_WrongMedecin(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	a := seedAppointment(repo, StatusScheduled)

	if _, _, err := svc.Accept(context.Background(), a.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReject(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	a := seedAppointment(repo, StatusScheduled)

	got, err := svc.Reject(context.Background(), a.ID, testMedecinID)
	if err != nil {
		t.Fatalf("Reject() error: %v", err)
	}
	if got.Status != StatusRejected {
		t.Errorf("expected REJECTED, got %s", got.Status)
	}
}

func TestComplete(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	a := seedAppointment(repo, StatusConfirmed)

	got, err := svc.Complete(context.Background(), a.ID, testMedecinID)
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", got.Status)
	}
}

func TestComplete_NotConfirmed(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	a := seedAppointment(repo, StatusScheduled)

	var se StateError
	if _, err := svc.Complete(context.Background(), a.ID, testMedecinID); !errors.As(err, &se) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

// -- Cancel / Reschedule --

func TestCancel(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	for _, s := range []Status{StatusScheduled, StatusConfirmed, StatusRescheduled} {
		a := seedAppointment(repo, s)
		got, err := svc.Cancel(context.Background(), a.ID, testPatientID)
		if err != nil {
			t.Fatalf("%s: Cancel() error: %v", s, err)
		}
		if got.Status != StatusCancelled {
			t.Errorf("%s: expected CANCELLED, got %s", s, got.Status)
		}
	}
}

func TestCancel_TerminalStates(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	already := seedAppointment(repo, StatusCancelled)
	_, err := svc.Cancel(context.Background(), already.ID, testPatientID)
	if err == nil || err.Error() != "appointment is already cancelled" {
		t.Errorf("CANCELLED: got %v", err)
	}

	completed := seedAppointment(repo, StatusCompleted)
	_, err = svc.Cancel(context.Background(), completed.ID, testPatientID)
	if err == nil || err.Error() != "cannot cancel a completed appointment" {
		t.Errorf("COMPLETED: got %v", err)
	}
}

func TestCancel_WrongPatient(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	a := seedAppointment(repo, StatusScheduled)

	if _, err := svc.Cancel(context.Background(), a.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReschedule(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	a := seedAppointment(repo, StatusConfirmed)
	a.Reason = "toothache"
	newDate := time.Now().Add(72 * time.Hour)

	got, err := svc.Reschedule(context.Background(), a.ID, testPatientID, newDate, "")
	if err != nil {
		t.Fatalf("Reschedule() error: %v", err)
	}
	if got.Status != StatusRescheduled {
		t.Errorf("expected RESCHEDULED, got %s", got.Status)
	}
	if !got.ScheduledAt.Equal(newDate) {
		t.Errorf("expected new date %v, got %v", newDate, got.ScheduledAt)
	}
	if got.Reason != "toothache" {
		t.Errorf("an empty reason must keep the original, got %q", got.Reason)
	}
}

func TestReschedule_NewReason(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	a := seedAppointment(repo, StatusScheduled)
	a.Reason = "toothache"

	got, err := svc.Reschedule(context.Background(), a.ID, testPatientID, time.Now().Add(72*time.Hour), "follow-up on filling")
	if err != nil {
		t.Fatalf("Reschedule() error: %v", err)
	}
	if got.Reason != "follow-up on filling" {
		t.Errorf("expected the new reason, got %q", got.Reason)
	}
}

func TestReschedule_Terminal(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	a := seedAppointment(repo, StatusCancelled)

	var se StateError
	if _, err := svc.Reschedule(context.Background(), a.ID, testPatientID, time.Now().Add(time.Hour), ""); !errors.As(err, &se) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

func TestReschedule_PastDate(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	a := seedAppointment(repo, StatusScheduled)

	if _, err := svc.Reschedule(context.Background(), a.ID, testPatientID, time.Now().Add(-time.Hour), ""); err == nil {
		t.Fatal("expected error for past date")
	}
	// Date validation runs before the lookup, so the status is untouched.
	if repo.appointments[a.ID].Status != StatusScheduled {
		t.Error("status must not change on a rejected reschedule")
	}
}

// -- Transactions --

func TestTransitionsRunThroughTxRunner(t *testing.T) {
	repo := newMockRepo()
	calls := 0
	runner := func(ctx context.Context, fn func(ctx context.Context) error) error {
		calls++
		return fn(ctx)
	}
	users := &mockUsers{medecin: &user.User{ID: testMedecinID, Username: "dr-house", Role: auth.RoleMedecin}}
	svc := NewService(repo, users, &mockFiles{exists: make(map[uuid.UUID]bool)}, runner)

	a := seedAppointment(repo, StatusScheduled)
	if _, _, err := svc.Accept(context.Background(), a.ID, testMedecinID); err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	b := seedAppointment(repo, StatusScheduled)
	if _, err := svc.Cancel(context.Background(), b.ID, testPatientID); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected each transition to run through the runner once, got %d calls", calls)
	}
}

func TestTransitions_GuardErrorSurfacesThroughTxRunner(t *testing.T) {
	repo := newMockRepo()
	runner := func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	users := &mockUsers{medecin: &user.User{ID: testMedecinID, Username: "dr-house", Role: auth.RoleMedecin}}
	svc := NewService(repo, users, &mockFiles{exists: make(map[uuid.UUID]bool)}, runner)

	a := seedAppointment(repo, StatusCompleted)
	var se StateError
	if _, err := svc.Cancel(context.Background(), a.ID, testPatientID); !errors.As(err, &se) {
		t.Fatalf("expected StateError through the runner, got %v", err)
	}
	if repo.appointments[a.ID].Status != StatusCompleted {
		t.Error("a refused transition must leave the status untouched")
	}
}

// -- Get / Stats --

func TestGet_Ownership(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	a := seedAppointment(repo, StatusScheduled)

	if _, err := svc.Get(context.Background(), a.ID, testPatientID); err != nil {
		t.Errorf("patient: unexpected error %v", err)
	}
	if _, err := svc.Get(context.Background(), a.ID, testMedecinID); err != nil {
		t.Errorf("medecin: unexpected error %v", err)
	}
	if _, err := svc.Get(context.Background(), a.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(context.Background(), uuid.New(), testPatientID); !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("missing: expected ErrNoRows, got %v", err)
	}
}

func TestStats(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	seedAppointment(repo, StatusScheduled)
	seedAppointment(repo, StatusRescheduled)
	seedAppointment(repo, StatusConfirmed)
	seedAppointment(repo, StatusRejected)
	seedAppointment(repo, StatusCompleted)

	st, err := svc.Stats(context.Background(), testMedecinID)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	want := Stats{Total: 5, Pending: 2, Accepted: 1, Rejected: 1, Completed: 1}
	if *st != want {
		t.Errorf("Stats() = %+v, want %+v", *st, want)
	}
}

func TestListForPatient_SortedByDateDesc(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	early := seedAppointment(repo, StatusScheduled)
	early.ScheduledAt = time.Now().Add(24 * time.Hour)
	late := seedAppointment(repo, StatusScheduled)
	late.ScheduledAt = time.Now().Add(96 * time.Hour)

	items, total, err := svc.ListForPatient(context.Background(), testPatientID, 20, 0)
	if err != nil {
		t.Fatalf("ListForPatient() error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 appointments, got %d", total)
	}
	if items[0].ID != late.ID {
		t.Error("expected the latest appointment first")
	}
}
