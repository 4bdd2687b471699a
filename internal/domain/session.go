package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStatus type for session lifecycle
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCancelled SessionStatus = "cancelled"
	SessionCompleted SessionStatus = "completed"
)

// Session is one booked appointment between a therapist and a client.
//
// Core invariant: for a fixed therapist, sessions with status != cancelled are
// pairwise non-overlapping on [Start, End); independently the same holds for a
// fixed client. Sessions are created by the booking flow, have Start/End
// mutated only by the reschedule flow, and are never deleted by normal flow
// (cancellation is a status change).
type Session struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TherapistID   primitive.ObjectID `bson:"therapistId" json:"therapistId"`
	ClientID      primitive.ObjectID `bson:"clientId" json:"clientId"`
	Start         time.Time          `bson:"start" json:"start"`
	End           time.Time          `bson:"end" json:"end"` // End > Start
	Status        SessionStatus      `bson:"status" json:"status"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	AttachmentKey string             `bson:"attachmentKey,omitempty" json:"attachmentKey,omitempty"` // Object key of an attached document, if any
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the session occupies its interval for conflict
// purposes (anything not cancelled does).
func (s *Session) IsActive() bool {
	return s.Status != SessionCancelled
}
