package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimeRange is a wall-clock "HH:MM" pair, EndTime > StartTime.
type TimeRange struct {
	StartTime string `bson:"startTime" json:"startTime"`
	EndTime   string `bson:"endTime" json:"endTime"`
}

// Preferences captures a client's soft preferences and hard constraints for
// slot suggestion. All fields are optional; empty means "no preference".
type Preferences struct {
	PreferredDaysOfWeek   []time.Weekday       `bson:"preferredDaysOfWeek,omitempty" json:"preferredDaysOfWeek,omitempty"`
	PreferredTimeRanges   []TimeRange          `bson:"preferredTimeRanges,omitempty" json:"preferredTimeRanges,omitempty"`
	PreferredTherapistIDs []primitive.ObjectID `bson:"preferredTherapistIds,omitempty" json:"preferredTherapistIds,omitempty"`
	NoEarlierThan         string               `bson:"noEarlierThan,omitempty" json:"noEarlierThan,omitempty"` // "HH:MM", hard constraint
	NoLaterThan           string               `bson:"noLaterThan,omitempty" json:"noLaterThan,omitempty"`     // "HH:MM", hard constraint
}

// PrefersTherapist reports whether the given therapist is in the client's
// preferred list.
func (p *Preferences) PrefersTherapist(therapistID primitive.ObjectID) bool {
	for _, id := range p.PreferredTherapistIDs {
		if id == therapistID {
			return true
		}
	}
	return false
}

// ClientProfile holds a client's booking preferences.
type ClientProfile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"` // Link to the User record
	Preferences Preferences        `bson:"preferences" json:"preferences"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
