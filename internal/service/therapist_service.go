package service

import (
	"context"
	"errors"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/domain"
	"github.com/Sushant9818/SmartScheduling/internal/repository"
	"github.com/Sushant9818/SmartScheduling/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Service Interface ---
type TherapistService interface {
	GetProfile(ctx context.Context, therapistUserID primitive.ObjectID) (*domain.TherapistProfile, error)
	ListTherapists(ctx context.Context) ([]domain.TherapistProfile, error)

	// Availability Management
	AddAvailabilityBlock(ctx context.Context, therapistUserID primitive.ObjectID, block domain.AvailabilityBlock) (*domain.AvailabilityBlock, error)
	UpdateAvailabilityBlock(ctx context.Context, therapistUserID primitive.ObjectID, block domain.AvailabilityBlock) error
	RemoveAvailabilityBlock(ctx context.Context, therapistUserID, blockID primitive.ObjectID) error

	// Time-off Management
	AddTimeOff(ctx context.Context, therapistUserID primitive.ObjectID, start, end time.Time, reason string) (*domain.TimeOff, error)
	RemoveTimeOff(ctx context.Context, therapistUserID, timeOffID primitive.ObjectID) error
}

// --- Service Implementation ---

// therapistService implements the TherapistService interface.
type therapistService struct {
	therapistRepo repository.TherapistRepository
}

// NewTherapistService creates a new instance of therapistService.
func NewTherapistService(therapistRepo repository.TherapistRepository) TherapistService {
	return &therapistService{therapistRepo: therapistRepo}
}

// GetProfile retrieves the schedule definition for a therapist.
func (s *therapistService) GetProfile(ctx context.Context, therapistUserID primitive.ObjectID) (*domain.TherapistProfile, error) {
	profile, err := s.therapistRepo.GetByUserID(ctx, therapistUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}
	return profile, nil
}

// ListTherapists returns every therapist's schedule definition.
func (s *therapistService) ListTherapists(ctx context.Context) ([]domain.TherapistProfile, error) {
	return s.therapistRepo.List(ctx)
}

// === Availability Management ===

// AddAvailabilityBlock validates and appends a weekly block. The write-time
// invariant: for a given weekday, no two of the therapist's blocks may
// overlap on [startTime, endTime). Overlap here is the same half-open test
// used for session conflicts.
func (s *therapistService) AddAvailabilityBlock(ctx context.Context, therapistUserID primitive.ObjectID, block domain.AvailabilityBlock) (*domain.AvailabilityBlock, error) {
	profile, err := s.GetProfile(ctx, therapistUserID)
	if err != nil {
		return nil, err
	}

	block.ID = primitive.NewObjectID()
	if err := s.validateBlock(profile, block, primitive.NilObjectID); err != nil {
		return nil, err
	}

	if err := s.therapistRepo.AddAvailabilityBlock(ctx, therapistUserID, block); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}
	return &block, nil
}

// UpdateAvailabilityBlock replaces an existing block after re-validating the
// overlap invariant against every other block.
func (s *therapistService) UpdateAvailabilityBlock(ctx context.Context, therapistUserID primitive.ObjectID, block domain.AvailabilityBlock) error {
	if block.ID == primitive.NilObjectID {
		return ErrBlockNotFound
	}
	profile, err := s.GetProfile(ctx, therapistUserID)
	if err != nil {
		return err
	}

	found := false
	for _, existing := range profile.Availability {
		if existing.ID == block.ID {
			found = true
			break
		}
	}
	if !found {
		return ErrBlockNotFound
	}

	if err := s.validateBlock(profile, block, block.ID); err != nil {
		return err
	}

	if err := s.therapistRepo.UpdateAvailabilityBlock(ctx, therapistUserID, block); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBlockNotFound
		}
		return err
	}
	return nil
}

// RemoveAvailabilityBlock deletes a block by id.
func (s *therapistService) RemoveAvailabilityBlock(ctx context.Context, therapistUserID, blockID primitive.ObjectID) error {
	if err := s.therapistRepo.RemoveAvailabilityBlock(ctx, therapistUserID, blockID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBlockNotFound
		}
		return err
	}
	return nil
}

// validateBlock checks well-formedness and the per-weekday overlap invariant,
// skipping the block identified by excludeID (the one being replaced).
func (s *therapistService) validateBlock(profile *domain.TherapistProfile, block domain.AvailabilityBlock, excludeID primitive.ObjectID) error {
	if block.DayOfWeek < time.Sunday || block.DayOfWeek > time.Saturday {
		return ErrBadTimeRange
	}
	// ClockInterval on an arbitrary date validates the HH:MM pair.
	if _, err := schedule.ClockInterval(time.Now().UTC(), block.StartTime, block.EndTime); err != nil {
		return ErrBadTimeRange
	}
	for _, existing := range profile.Availability {
		if existing.ID == excludeID {
			continue
		}
		overlaps, err := schedule.BlocksOverlap(existing, block)
		if err != nil {
			// A malformed persisted block cannot veto a valid write.
			continue
		}
		if overlaps {
			return ErrBlockOverlap
		}
	}
	return nil
}

// === Time-off Management ===

// AddTimeOff records an absolute unavailability interval.
func (s *therapistService) AddTimeOff(ctx context.Context, therapistUserID primitive.ObjectID, start, end time.Time, reason string) (*domain.TimeOff, error) {
	if !end.After(start) {
		return nil, ErrInvalidInterval
	}

	off := domain.TimeOff{
		ID:     primitive.NewObjectID(),
		Start:  start.UTC(),
		End:    end.UTC(),
		Reason: reason,
	}

	if err := s.therapistRepo.AddTimeOff(ctx, therapistUserID, off); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}
	return &off, nil
}

// RemoveTimeOff deletes a time-off entry by id.
func (s *therapistService) RemoveTimeOff(ctx context.Context, therapistUserID, timeOffID primitive.ObjectID) error {
	if err := s.therapistRepo.RemoveTimeOff(ctx, therapistUserID, timeOffID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTimeOffNotFound
		}
		return err
	}
	return nil
}
