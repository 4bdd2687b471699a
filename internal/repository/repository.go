package repository

import (
	"context"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("conflicting record exists")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// TherapistRepository defines the interface for therapist schedule definitions.
type TherapistRepository interface {
	Create(ctx context.Context, profile *domain.TherapistProfile) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TherapistProfile, error)
	List(ctx context.Context) ([]domain.TherapistProfile, error)
	AddAvailabilityBlock(ctx context.Context, userID primitive.ObjectID, block domain.AvailabilityBlock) error
	UpdateAvailabilityBlock(ctx context.Context, userID primitive.ObjectID, block domain.AvailabilityBlock) error
	RemoveAvailabilityBlock(ctx context.Context, userID, blockID primitive.ObjectID) error
	AddTimeOff(ctx context.Context, userID primitive.ObjectID, off domain.TimeOff) error
	RemoveTimeOff(ctx context.Context, userID, timeOffID primitive.ObjectID) error
}

// ClientRepository defines the interface for client preference data.
type ClientRepository interface {
	Create(ctx context.Context, profile *domain.ClientProfile) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.ClientProfile, error)
	UpdatePreferences(ctx context.Context, userID primitive.ObjectID, prefs domain.Preferences) error
}

// SessionRepository defines the interface for session data. Create must map a
// duplicate-key violation of the scheduled-session uniqueness index to
// ErrConflict so a lost booking race surfaces as a conflict, never as a
// silent double-booking.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error)
	// FindOverlappingForTherapist returns non-cancelled sessions for the
	// therapist overlapping [start, end), excluding excludeID when non-nil.
	FindOverlappingForTherapist(ctx context.Context, therapistID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) ([]domain.Session, error)
	FindOverlappingForClient(ctx context.Context, clientID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) ([]domain.Session, error)
	ListForTherapist(ctx context.Context, therapistID primitive.ObjectID) ([]domain.Session, error)
	ListForClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Session, error)
	UpdateInterval(ctx context.Context, id primitive.ObjectID, start, end time.Time) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.SessionStatus) error
	SetAttachmentKey(ctx context.Context, id primitive.ObjectID, objectKey string) error
}
