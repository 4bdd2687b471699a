package service

import (
	"context"
	"errors"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/cache"
	"github.com/Sushant9818/SmartScheduling/internal/config"
	"github.com/Sushant9818/SmartScheduling/internal/domain"
	"github.com/Sushant9818/SmartScheduling/internal/repository"
	"github.com/Sushant9818/SmartScheduling/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TherapistSlots is one therapist's free start times for a date.
type TherapistSlots struct {
	TherapistID primitive.ObjectID `json:"therapistId"`
	Starts      []time.Time        `json:"starts"`
}

// --- Service Interface ---
type SchedulingService interface {
	// ListAvailableSlots returns, per therapist, the free start times for a
	// calendar date at the requested slot duration. Read-only; no locking.
	ListAvailableSlots(ctx context.Context, date time.Time, duration time.Duration) ([]TherapistSlots, error)

	// SuggestSlots generates and ranks candidate slots for the requesting
	// client with one therapist across a date range.
	SuggestSlots(ctx context.Context, actor domain.RequestingIdentity, therapistID primitive.ObjectID, from, to time.Time, duration time.Duration, limit int) ([]schedule.RankedSlot, error)
}

// --- Service Implementation ---

// schedulingService implements the read-only suggest/list flows. Results may
// race benignly with concurrent bookings; staleness is resolved by
// re-validation at booking time, never by locking reads.
type schedulingService struct {
	therapistRepo repository.TherapistRepository
	clientRepo    repository.ClientRepository
	sessionRepo   repository.SessionRepository
	slotCache     *cache.SlotCache // may be nil
	bounds        config.SchedulingConfig
	now           func() time.Time
}

// NewSchedulingService creates a new instance of schedulingService.
func NewSchedulingService(
	therapistRepo repository.TherapistRepository,
	clientRepo repository.ClientRepository,
	sessionRepo repository.SessionRepository,
	slotCache *cache.SlotCache,
	bounds config.SchedulingConfig,
) SchedulingService {
	return &schedulingService{
		therapistRepo: therapistRepo,
		clientRepo:    clientRepo,
		sessionRepo:   sessionRepo,
		slotCache:     slotCache,
		bounds:        bounds,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// checkDuration enforces the configured slot duration bounds (default 5-120 minutes).
func (s *schedulingService) checkDuration(duration time.Duration) error {
	minutes := int(duration.Minutes())
	if minutes <= 0 || duration%time.Minute != 0 {
		return ErrBadDuration
	}
	if minutes < s.bounds.MinSlotMinutes || minutes > s.bounds.MaxSlotMinutes {
		return ErrBadDuration
	}
	return nil
}

// ListAvailableSlots computes free start times for every therapist on a date.
// Per-therapist listings are served from the slot cache when fresh.
func (s *schedulingService) ListAvailableSlots(ctx context.Context, date time.Time, duration time.Duration) ([]TherapistSlots, error) {
	if err := s.checkDuration(duration); err != nil {
		return nil, err
	}

	profiles, err := s.therapistRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]TherapistSlots, 0, len(profiles))
	for i := range profiles {
		profile := &profiles[i]

		if s.slotCache != nil {
			var cached TherapistSlots
			if err := s.slotCache.Get(ctx, profile.UserID, date, duration, &cached); err == nil {
				results = append(results, cached)
				continue
			}
		}

		slots, err := s.slotsForTherapist(ctx, profile, date, duration, nil, primitive.NilObjectID)
		if err != nil {
			return nil, err
		}

		entry := TherapistSlots{TherapistID: profile.UserID, Starts: make([]time.Time, 0, len(slots))}
		for _, slot := range slots {
			entry.Starts = append(entry.Starts, slot.Start)
		}
		results = append(results, entry)

		if s.slotCache != nil {
			_ = s.slotCache.Set(ctx, profile.UserID, date, duration, entry) // best-effort
		}
	}
	return results, nil
}

// SuggestSlots walks every date in [from, to], generates candidates honoring
// the client's preferences, and returns the top-ranked slots.
func (s *schedulingService) SuggestSlots(ctx context.Context, actor domain.RequestingIdentity, therapistID primitive.ObjectID, from, to time.Time, duration time.Duration, limit int) ([]schedule.RankedSlot, error) {
	if err := s.checkDuration(duration); err != nil {
		return nil, err
	}
	from, to = dateOnly(from), dateOnly(to)
	if to.Before(from) || int(to.Sub(from).Hours()/24) > s.bounds.MaxSuggestDays {
		return nil, ErrBadDateRange
	}
	if limit <= 0 || limit > s.bounds.SuggestLimit {
		limit = s.bounds.SuggestLimit
	}

	profile, err := s.therapistRepo.GetByUserID(ctx, therapistID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}

	clientProfile, err := s.clientRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	prefs := &clientProfile.Preferences

	var all []schedule.Slot
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		if len(prefs.PreferredDaysOfWeek) > 0 && !weekdayPreferred(date.Weekday(), prefs.PreferredDaysOfWeek) {
			continue
		}
		slots, err := s.slotsForTherapist(ctx, profile, date, duration, prefs, actor.UserID)
		if err != nil {
			return nil, err
		}
		all = append(all, slots...)
	}

	ranked := schedule.RankSlots(all, prefs, s.now())
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// slotsForTherapist generates candidates for one therapist and date. When a
// clientID is supplied (the suggest variant), the client's own active
// sessions also exclude candidates.
func (s *schedulingService) slotsForTherapist(ctx context.Context, profile *domain.TherapistProfile, date time.Time, duration time.Duration, prefs *domain.Preferences, clientID primitive.ObjectID) ([]schedule.Slot, error) {
	dayStart := dateOnly(date)
	dayEnd := dayStart.AddDate(0, 0, 1)

	busy, err := s.sessionRepo.FindOverlappingForTherapist(ctx, profile.UserID, dayStart, dayEnd, nil)
	if err != nil {
		return nil, err
	}
	if clientID != primitive.NilObjectID {
		clientBusy, err := s.sessionRepo.FindOverlappingForClient(ctx, clientID, dayStart, dayEnd, nil)
		if err != nil {
			return nil, err
		}
		busy = append(busy, clientBusy...)
	}

	active := make([]schedule.Interval, 0, len(busy))
	for _, sess := range busy {
		active = append(active, schedule.Interval{Start: sess.Start, End: sess.End})
	}

	return schedule.GenerateSlots(schedule.SlotParams{
		TherapistID:    profile.UserID,
		Date:           dayStart,
		Duration:       duration,
		Availability:   schedule.ResolveAvailability(profile, dayStart),
		TimeOff:        profile.TimeOff,
		ActiveSessions: active,
		Preferences:    prefs,
	})
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func weekdayPreferred(day time.Weekday, preferred []time.Weekday) bool {
	for _, d := range preferred {
		if d == day {
			return true
		}
	}
	return false
}
