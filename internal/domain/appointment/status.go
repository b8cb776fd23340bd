package appointment

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled   Status = "SCHEDULED"
	StatusConfirmed   Status = "CONFIRMED"
	StatusRejected    Status = "REJECTED"
	StatusCancelled   Status = "CANCELLED"
	StatusCompleted   Status = "COMPLETED"
	StatusRescheduled Status = "RESCHEDULED"
)

var validStatuses = map[Status]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusRejected: true,
	StatusCancelled: true, StatusCompleted: true, StatusRescheduled: true,
}

func (s Status) Valid() bool { return validStatuses[s] }

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

// Pending reports whether the appointment is awaiting a clinician decision.
// A rescheduled appointment goes back into the decision queue.
func (s Status) Pending() bool {
	return s == StatusScheduled || s == StatusRescheduled
}

// StateError is returned when the current status does not allow the
// requested transition.
type StateError string

func (e StateError) Error() string { return string(e) }

func canDecide(s Status) error {
	if !s.Pending() {
		return StateError("can only accept or reject appointments in SCHEDULED or RESCHEDULED status")
	}
	return nil
}

func canCancel(s Status) error {
	switch s {
	case StatusCancelled:
		return StateError("appointment is already cancelled")
	case StatusCompleted:
		return StateError("cannot cancel a completed appointment")
	case StatusRejected:
		return StateError("cannot cancel a rejected appointment")
	}
	return nil
}

func canReschedule(s Status) error {
	if s.Terminal() {
		return StateError("cannot reschedule an appointment in " + string(s) + " status")
	}
	return nil
}

func canComplete(s Status) error {
	if s != StatusConfirmed {
		return StateError("can only complete appointments in CONFIRMED status")
	}
	return nil
}
