package service

// Reason is the discriminated rejection code surfaced to callers alongside a
// human-readable message. The API layer maps these onto HTTP statuses; it
// must not retry automatically on CONFLICT, NOT_IN_AVAILABILITY or FORBIDDEN.
type Reason string

const (
	ReasonNotFound          Reason = "NOT_FOUND"
	ReasonInvalidTime       Reason = "INVALID_TIME"
	ReasonPast              Reason = "PAST"
	ReasonNotInAvailability Reason = "NOT_IN_AVAILABILITY"
	ReasonConflict          Reason = "CONFLICT"
	ReasonInvalidStatus     Reason = "INVALID_STATUS"
	ReasonForbidden         Reason = "FORBIDDEN"
	ReasonInvalidInput      Reason = "INVALID_INPUT"
)

// Rejection is a typed precondition failure. All scheduling preconditions are
// recovered locally and returned as one of these; only genuine storage or
// transport failures propagate as plain errors.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

func reject(reason Reason, message string) *Rejection {
	return &Rejection{Reason: reason, Message: message}
}

// --- Error Definitions ---
var (
	ErrTherapistNotFound = reject(ReasonNotFound, "therapist not found")
	ErrClientNotFound    = reject(ReasonNotFound, "client profile not found")
	ErrSessionNotFound   = reject(ReasonNotFound, "session not found")
	ErrBlockNotFound     = reject(ReasonNotFound, "availability block not found")
	ErrTimeOffNotFound   = reject(ReasonNotFound, "time-off entry not found")

	ErrInvalidInterval   = reject(ReasonInvalidTime, "session end must be after start")
	ErrStartInPast       = reject(ReasonPast, "proposed start time is in the past")
	ErrNotInAvailability = reject(ReasonNotInAvailability, "proposed interval is outside the therapist's availability")
	ErrTherapistConflict = reject(ReasonConflict, "therapist already has a session in that interval")
	ErrClientConflict    = reject(ReasonConflict, "client already has a session in that interval")
	ErrBlockOverlap      = reject(ReasonConflict, "availability block overlaps an existing block on that weekday")
	ErrNotScheduled      = reject(ReasonInvalidStatus, "session is not in the scheduled state")
	ErrNotOwner          = reject(ReasonForbidden, "caller is not a party to this session")
	ErrBadDuration       = reject(ReasonInvalidInput, "slot duration outside allowed bounds")
	ErrBadDateRange      = reject(ReasonInvalidInput, "invalid or oversized date range")
	ErrBadTimeRange      = reject(ReasonInvalidInput, "invalid wall-clock time range")
)
