package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AvailabilityBlock is one recurring weekly working window for a therapist.
// StartTime and EndTime are wall-clock "HH:MM" strings interpreted in UTC;
// DayOfWeek uses time.Weekday (0 = Sunday). The wire format carries the
// weekday as its integer value and is converted exactly once at the edge.
type AvailabilityBlock struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DayOfWeek       time.Weekday       `bson:"dayOfWeek" json:"dayOfWeek"`
	StartTime       string             `bson:"startTime" json:"startTime"` // e.g. "09:00"
	EndTime         string             `bson:"endTime" json:"endTime"`     // e.g. "12:00"
	RecurringWeekly bool               `bson:"recurringWeekly" json:"recurringWeekly"`
}

// TimeOff is an absolute interval during which the therapist is unavailable
// regardless of weekly availability.
type TimeOff struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Start  time.Time          `bson:"start" json:"start"`
	End    time.Time          `bson:"end" json:"end"`
	Reason string             `bson:"reason,omitempty" json:"reason,omitempty"`
}

// TherapistProfile holds a therapist's bookable schedule definition.
// Invariant, enforced at write time by the therapist service: for a given
// weekday, no two availability blocks overlap on [StartTime, EndTime).
type TherapistProfile struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID  `bson:"userId" json:"userId"` // Link to the User record
	Bio          string              `bson:"bio,omitempty" json:"bio,omitempty"`
	Availability []AvailabilityBlock `bson:"availability" json:"availability"`
	TimeOff      []TimeOff           `bson:"timeOff" json:"timeOff"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// BlocksForWeekday returns the availability blocks matching the given weekday.
// Overlapping blocks are tolerated in reads (they simply produce duplicate
// slot candidates downstream); the write path rejects them.
func (p *TherapistProfile) BlocksForWeekday(day time.Weekday) []AvailabilityBlock {
	var blocks []AvailabilityBlock
	for _, b := range p.Availability {
		if b.DayOfWeek == day {
			blocks = append(blocks, b)
		}
	}
	return blocks
}
