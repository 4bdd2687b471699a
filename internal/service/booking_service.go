package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/cache"
	"github.com/Sushant9818/SmartScheduling/internal/domain"
	"github.com/Sushant9818/SmartScheduling/internal/logging"
	"github.com/Sushant9818/SmartScheduling/internal/repository"
	"github.com/Sushant9818/SmartScheduling/internal/schedule"
	"github.com/Sushant9818/SmartScheduling/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RescheduleCheck is the read-only answer of CheckReschedule.
type RescheduleCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// AttachmentUploadResponse carries a presigned PUT URL plus the object key the
// client must confirm after uploading.
type AttachmentUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// --- Service Interface ---
type BookingService interface {
	// BookSession atomically validates and creates a scheduled session for
	// the requesting client with the given therapist.
	BookSession(ctx context.Context, actor domain.RequestingIdentity, therapistID primitive.ObjectID, start, end time.Time, notes string) (*domain.Session, error)

	// CheckReschedule re-validates every booking precondition for moving an
	// existing session, without mutating anything.
	CheckReschedule(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID, newStart, newEnd time.Time) (*RescheduleCheck, error)

	// ApplyReschedule re-runs the same validation under the booking lock and
	// moves the session. It never trusts a prior CheckReschedule result.
	ApplyReschedule(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID, newStart, newEnd time.Time) (*domain.Session, error)

	// CancelSession marks a session cancelled, freeing its interval.
	// Cancelling an already-cancelled session is a no-op.
	CancelSession(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID) (*domain.Session, error)

	// CompleteSession transitions scheduled -> completed.
	CompleteSession(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID) (*domain.Session, error)

	// ListSessions returns the caller's sessions (therapist or client view).
	ListSessions(ctx context.Context, actor domain.RequestingIdentity) ([]domain.Session, error)

	// GetAttachmentUploadURL issues a presigned PUT URL for a session document.
	GetAttachmentUploadURL(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID, contentType string) (*AttachmentUploadResponse, error)

	// ConfirmAttachment records the uploaded object key on the session.
	ConfirmAttachment(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID, objectKey string) (*domain.Session, error)

	// GetAttachmentDownloadURL issues a presigned GET URL for the session's document.
	GetAttachmentDownloadURL(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID) (string, error)
}

// --- Service Implementation ---

// bookingService implements BookingService. It is the only path allowed to
// mutate session state; slot listing and suggestion stay read-only.
type bookingService struct {
	userRepo      repository.UserRepository
	therapistRepo repository.TherapistRepository
	clientRepo    repository.ClientRepository
	sessionRepo   repository.SessionRepository
	fileStorage   storage.FileStorage
	slotCache     *cache.SlotCache // may be nil; cache is best-effort
	locks         *therapistLocks
	now           func() time.Time
}

// NewBookingService creates a new instance of bookingService. fileStorage and
// slotCache may be nil when the corresponding features are disabled.
func NewBookingService(
	userRepo repository.UserRepository,
	therapistRepo repository.TherapistRepository,
	clientRepo repository.ClientRepository,
	sessionRepo repository.SessionRepository,
	fileStorage storage.FileStorage,
	slotCache *cache.SlotCache,
) BookingService {
	return &bookingService{
		userRepo:      userRepo,
		therapistRepo: therapistRepo,
		clientRepo:    clientRepo,
		sessionRepo:   sessionRepo,
		fileStorage:   fileStorage,
		slotCache:     slotCache,
		locks:         newTherapistLocks(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// === Conflict Detection ===

// hasTherapistConflict reports whether an active session occupies any part of
// [start, end) for the therapist, excluding excludeID when non-nil.
func (s *bookingService) hasTherapistConflict(ctx context.Context, therapistID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) (bool, error) {
	overlapping, err := s.sessionRepo.FindOverlappingForTherapist(ctx, therapistID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return len(overlapping) > 0, nil
}

// hasClientConflict is the symmetric check for the client's calendar.
func (s *bookingService) hasClientConflict(ctx context.Context, clientID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) (bool, error) {
	overlapping, err := s.sessionRepo.FindOverlappingForClient(ctx, clientID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return len(overlapping) > 0, nil
}

// === Booking ===

// BookSession runs the precondition chain in order (first failure wins) and
// inserts the session. The whole validate+insert runs under the therapist's
// booking lock so two concurrent requests for overlapping intervals cannot
// both pass the conflict check; the partial unique index backstops any race
// the lock cannot see.
func (s *bookingService) BookSession(ctx context.Context, actor domain.RequestingIdentity, therapistID primitive.ObjectID, start, end time.Time, notes string) (*domain.Session, error) {
	start, end = start.UTC(), end.UTC()

	unlock := s.locks.acquire(therapistID)
	defer unlock()

	if err := s.validateBooking(ctx, actor.UserID, therapistID, start, end, nil); err != nil {
		return nil, err
	}

	session := &domain.Session{
		TherapistID: therapistID,
		ClientID:    actor.UserID,
		Start:       start,
		End:         end,
		Status:      domain.SessionScheduled,
		Notes:       notes,
	}

	sessionID, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Lost race surfaced by the unique index; never retried silently.
			return nil, ErrTherapistConflict
		}
		return nil, err
	}
	session.ID = sessionID

	s.invalidateSlots(ctx, therapistID)
	logging.Get().Info("session booked",
		zap.String("session", sessionID.Hex()),
		zap.String("therapist", therapistID.Hex()),
		zap.String("client", actor.UserID.Hex()),
		zap.Time("start", start),
	)
	return session, nil
}

// validateBooking is the shared precondition chain of booking and reschedule.
// Order is significant: therapist exists, client exists, end > start, within
// availability, no therapist conflict, no client conflict.
func (s *bookingService) validateBooking(ctx context.Context, clientID, therapistID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) error {
	profile, err := s.therapistRepo.GetByUserID(ctx, therapistID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTherapistNotFound
		}
		return err
	}

	if _, err := s.clientRepo.GetByUserID(ctx, clientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}

	if !end.After(start) {
		return ErrInvalidInterval
	}

	if !schedule.WithinAvailability(profile, schedule.Interval{Start: start, End: end}) {
		return ErrNotInAvailability
	}

	conflict, err := s.hasTherapistConflict(ctx, therapistID, start, end, excludeID)
	if err != nil {
		return err
	}
	if conflict {
		return ErrTherapistConflict
	}

	conflict, err = s.hasClientConflict(ctx, clientID, start, end, excludeID)
	if err != nil {
		return err
	}
	if conflict {
		return ErrClientConflict
	}

	return nil
}

// === Reschedule ===

// validateReschedule checks everything ApplyReschedule needs: ownership,
// scheduled status, a future start, and the full booking chain with the
// session's own id excluded from conflict checks.
func (s *bookingService) validateReschedule(ctx context.Context, actor domain.RequestingIdentity, session *domain.Session, newStart, newEnd time.Time) error {
	if !s.actorMayManage(actor, session) {
		return ErrNotOwner
	}
	if session.Status != domain.SessionScheduled {
		return ErrNotScheduled
	}
	if !newEnd.After(newStart) {
		return ErrInvalidInterval
	}
	if !newStart.After(s.now()) {
		return ErrStartInPast
	}
	excludeID := session.ID
	return s.validateBooking(ctx, session.ClientID, session.TherapistID, newStart, newEnd, &excludeID)
}

// CheckReschedule is read-only; callers must not treat an allowed answer as a
// reservation, since time passes between check and apply.
func (s *bookingService) CheckReschedule(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID, newStart, newEnd time.Time) (*RescheduleCheck, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.validateReschedule(ctx, actor, session, newStart.UTC(), newEnd.UTC()); err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			return &RescheduleCheck{Allowed: false, Reason: rej.Reason, Message: rej.Message}, nil
		}
		return nil, err
	}
	return &RescheduleCheck{Allowed: true}, nil
}

// ApplyReschedule re-validates under the booking lock and moves the session in
// place. On any validation failure the session is left unchanged.
func (s *bookingService) ApplyReschedule(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID, newStart, newEnd time.Time) (*domain.Session, error) {
	newStart, newEnd = newStart.UTC(), newEnd.UTC()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(session.TherapistID)
	defer unlock()

	// Re-fetch under the lock; the session may have moved since the first read.
	session, err = s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.validateReschedule(ctx, actor, session, newStart, newEnd); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.UpdateInterval(ctx, sessionID, newStart, newEnd); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrTherapistConflict
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	session.Start = newStart
	session.End = newEnd

	s.invalidateSlots(ctx, session.TherapistID)
	logging.Get().Info("session rescheduled",
		zap.String("session", sessionID.Hex()),
		zap.Time("newStart", newStart),
	)
	return session, nil
}

// === Lifecycle ===

// CancelSession frees the session's interval. Idempotent: cancelling an
// already-cancelled session succeeds without touching storage.
func (s *bookingService) CancelSession(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID) (*domain.Session, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.actorMayManage(actor, session) {
		return nil, ErrNotOwner
	}
	if session.Status == domain.SessionCancelled {
		return session, nil
	}
	if session.Status == domain.SessionCompleted {
		return nil, ErrNotScheduled
	}

	if err := s.sessionRepo.UpdateStatus(ctx, sessionID, domain.SessionCancelled); err != nil {
		return nil, err
	}
	session.Status = domain.SessionCancelled

	// The freed interval must be visible to the next conflict check.
	s.invalidateSlots(ctx, session.TherapistID)
	return session, nil
}

// CompleteSession marks a scheduled session completed. Completed sessions
// still occupy their interval for conflict purposes.
func (s *bookingService) CompleteSession(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID) (*domain.Session, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.actorMayManage(actor, session) {
		return nil, ErrNotOwner
	}
	if session.Status != domain.SessionScheduled {
		return nil, ErrNotScheduled
	}

	if err := s.sessionRepo.UpdateStatus(ctx, sessionID, domain.SessionCompleted); err != nil {
		return nil, err
	}
	session.Status = domain.SessionCompleted
	return session, nil
}

// ListSessions returns the caller's own sessions.
func (s *bookingService) ListSessions(ctx context.Context, actor domain.RequestingIdentity) ([]domain.Session, error) {
	switch actor.Role {
	case domain.RoleTherapist:
		return s.sessionRepo.ListForTherapist(ctx, actor.UserID)
	case domain.RoleClient:
		return s.sessionRepo.ListForClient(ctx, actor.UserID)
	default:
		return nil, ErrNotOwner
	}
}

// === Attachments ===

// GetAttachmentUploadURL issues a presigned PUT URL for a document belonging
// to one of the session's parties.
func (s *bookingService) GetAttachmentUploadURL(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID, contentType string) (*AttachmentUploadResponse, error) {
	if s.fileStorage == nil {
		return nil, errors.New("file storage is not configured")
	}
	if contentType == "" {
		return nil, reject(ReasonInvalidInput, "content type is required")
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.actorMayManage(actor, session) {
		return nil, ErrNotOwner
	}

	ext := "bin"
	if parts := strings.Split(contentType, "/"); len(parts) == 2 && parts[1] != "" {
		ext = parts[1]
	}
	objectKey := path.Join("sessions", sessionID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), ext))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}

	return &AttachmentUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmAttachment records the object key after the client finished the
// direct upload.
func (s *bookingService) ConfirmAttachment(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID, objectKey string) (*domain.Session, error) {
	if objectKey == "" || !strings.HasPrefix(objectKey, "sessions/"+sessionID.Hex()+"/") {
		return nil, reject(ReasonInvalidInput, "object key does not belong to this session")
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.actorMayManage(actor, session) {
		return nil, ErrNotOwner
	}

	if err := s.sessionRepo.SetAttachmentKey(ctx, sessionID, objectKey); err != nil {
		return nil, err
	}
	session.AttachmentKey = objectKey
	return session, nil
}

// GetAttachmentDownloadURL issues a presigned GET URL for the session's document.
func (s *bookingService) GetAttachmentDownloadURL(ctx context.Context, actor domain.RequestingIdentity, sessionID primitive.ObjectID) (string, error) {
	if s.fileStorage == nil {
		return "", errors.New("file storage is not configured")
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !s.actorMayManage(actor, session) {
		return "", ErrNotOwner
	}
	if session.AttachmentKey == "" {
		return "", reject(ReasonNotFound, "session has no attachment")
	}

	return s.fileStorage.GeneratePresignedDownloadURL(ctx, session.AttachmentKey, storage.DefaultPresignedURLExpiry)
}

// === Helpers ===

func (s *bookingService) getSession(ctx context.Context, sessionID primitive.ObjectID) (*domain.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// actorMayManage performs the identity comparison this core is responsible
// for: the owning client, the owning therapist, or an admin.
func (s *bookingService) actorMayManage(actor domain.RequestingIdentity, session *domain.Session) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return actor.UserID == session.ClientID || actor.UserID == session.TherapistID
}

// invalidateSlots drops cached listings for a therapist before the write
// call returns. Cache failures only log; correctness never depends on the cache.
func (s *bookingService) invalidateSlots(ctx context.Context, therapistID primitive.ObjectID) {
	if s.slotCache == nil {
		return
	}
	if err := s.slotCache.Invalidate(ctx, therapistID); err != nil {
		logging.Get().Warn("slot cache invalidation failed",
			zap.String("therapist", therapistID.Hex()),
			zap.Error(err),
		)
	}
}
