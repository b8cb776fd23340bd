package appointment

import "testing"

func TestStatusTerminal(t *testing.T) {
	cases := []struct {
		status   Status
		terminal bool
	}{
		{StatusScheduled, false},
		{StatusConfirmed, false},
		{StatusRescheduled, false},
		{StatusRejected, true},
		{StatusCancelled, true},
		{StatusCompleted, true},
	}
	for _, tt := range cases {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s: Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestStatusPending(t *testing.T) {
	if !StatusScheduled.Pending() || !StatusRescheduled.Pending() {
		t.Error("SCHEDULED and RESCHEDULED must both count as pending")
	}
	if StatusConfirmed.Pending() {
		t.Error("CONFIRMED must not count as pending")
	}
}

func TestCanDecide(t *testing.T) {
	if err := canDecide(StatusScheduled); err != nil {
		t.Errorf("SCHEDULED: unexpected error %v", err)
	}
	if err := canDecide(StatusRescheduled); err != nil {
		t.Errorf("RESCHEDULED: unexpected error %v", err)
	}
	for _, s := range []Status{StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted} {
		if err := canDecide(s); err == nil {
			t.Errorf("%s: expected refusal", s)
		}
	}
}

func TestCanCancel(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusConfirmed, StatusRescheduled} {
		if err := canCancel(s); err != nil {
			t.Errorf("%s: unexpected error %v", s, err)
		}
	}
	if err := canCancel(StatusCancelled); err == nil || err.Error() != "appointment is already cancelled" {
		t.Errorf("CANCELLED: got %v", err)
	}
	if err := canCancel(StatusCompleted); err == nil || err.Error() != "cannot cancel a completed appointment" {
		t.Errorf("COMPLETED: got %v", err)
	}
	if err := canCancel(StatusRejected); err == nil {
		t.Error("REJECTED: expected refusal")
	}
}

func TestCanReschedule(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusConfirmed, StatusRescheduled} {
		if err := canReschedule(s); err != nil {
			t.Errorf("%s: unexpected error %v", s, err)
		}
	}
	for _, s := range []Status{StatusRejected, StatusCancelled, StatusCompleted} {
		if err := canReschedule(s); err == nil {
			t.Errorf("%s: expected refusal", s)
		}
	}
}

func TestCanComplete(t *testing.T) {
	if err := canComplete(StatusConfirmed); err != nil {
		t.Errorf("CONFIRMED: unexpected error %v", err)
	}
	for _, s := range []Status{StatusScheduled, StatusRescheduled, StatusRejected, StatusCancelled, StatusCompleted} {
		if err := canComplete(s); err == nil {
			t.Errorf("%s: expected refusal", s)
		}
	}
}
