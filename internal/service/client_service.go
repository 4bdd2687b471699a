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
type ClientService interface {
	GetProfile(ctx context.Context, clientUserID primitive.ObjectID) (*domain.ClientProfile, error)
	UpdatePreferences(ctx context.Context, clientUserID primitive.ObjectID, prefs domain.Preferences) (*domain.ClientProfile, error)
}

// --- Service Implementation ---

// clientService implements the ClientService interface.
type clientService struct {
	clientRepo repository.ClientRepository
}

// NewClientService creates a new instance of clientService.
func NewClientService(clientRepo repository.ClientRepository) ClientService {
	return &clientService{clientRepo: clientRepo}
}

// GetProfile retrieves a client's preferences.
func (s *clientService) GetProfile(ctx context.Context, clientUserID primitive.ObjectID) (*domain.ClientProfile, error) {
	profile, err := s.clientRepo.GetByUserID(ctx, clientUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return profile, nil
}

// UpdatePreferences validates and replaces the client's stored preferences.
func (s *clientService) UpdatePreferences(ctx context.Context, clientUserID primitive.ObjectID, prefs domain.Preferences) (*domain.ClientProfile, error) {
	for _, day := range prefs.PreferredDaysOfWeek {
		if day < time.Sunday || day > time.Saturday {
			return nil, ErrBadTimeRange
		}
	}
	// Validate every wall-clock value once at the edge; the scheduling core
	// then trusts stored preferences.
	anchor := time.Now().UTC()
	for _, tr := range prefs.PreferredTimeRanges {
		if _, err := schedule.ClockInterval(anchor, tr.StartTime, tr.EndTime); err != nil {
			return nil, ErrBadTimeRange
		}
	}
	if prefs.NoEarlierThan != "" {
		if _, err := schedule.ParseClock(prefs.NoEarlierThan); err != nil {
			return nil, ErrBadTimeRange
		}
	}
	if prefs.NoLaterThan != "" {
		if _, err := schedule.ParseClock(prefs.NoLaterThan); err != nil {
			return nil, ErrBadTimeRange
		}
	}

	if err := s.clientRepo.UpdatePreferences(ctx, clientUserID, prefs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return s.GetProfile(ctx, clientUserID)
}
