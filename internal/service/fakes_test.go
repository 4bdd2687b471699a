package service

import (
	"context"
	"sync"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/domain"
	"github.com/Sushant9818/SmartScheduling/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes backing the service tests. All of them are
// mutex-guarded so the booking concurrency tests can hammer them from
// multiple goroutines.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeTherapistRepo struct {
	mu       sync.Mutex
	profiles map[primitive.ObjectID]*domain.TherapistProfile // keyed by user id
}

func newFakeTherapistRepo() *fakeTherapistRepo {
	return &fakeTherapistRepo{profiles: make(map[primitive.ObjectID]*domain.TherapistProfile)}
}

func (r *fakeTherapistRepo) Create(ctx context.Context, profile *domain.TherapistProfile) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[profile.UserID]; exists {
		return primitive.NilObjectID, repository.ErrConflict
	}
	if profile.ID.IsZero() {
		profile.ID = primitive.NewObjectID()
	}
	cp := *profile
	r.profiles[profile.UserID] = &cp
	return profile.ID, nil
}

func (r *fakeTherapistRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TherapistProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	cp.Availability = append([]domain.AvailabilityBlock(nil), p.Availability...)
	cp.TimeOff = append([]domain.TimeOff(nil), p.TimeOff...)
	return &cp, nil
}

func (r *fakeTherapistRepo) List(ctx context.Context) ([]domain.TherapistProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TherapistProfile
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeTherapistRepo) AddAvailabilityBlock(ctx context.Context, userID primitive.ObjectID, block domain.AvailabilityBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Availability = append(p.Availability, block)
	return nil
}

func (r *fakeTherapistRepo) UpdateAvailabilityBlock(ctx context.Context, userID primitive.ObjectID, block domain.AvailabilityBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range p.Availability {
		if p.Availability[i].ID == block.ID {
			p.Availability[i] = block
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeTherapistRepo) RemoveAvailabilityBlock(ctx context.Context, userID, blockID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range p.Availability {
		if p.Availability[i].ID == blockID {
			p.Availability = append(p.Availability[:i], p.Availability[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeTherapistRepo) AddTimeOff(ctx context.Context, userID primitive.ObjectID, off domain.TimeOff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.TimeOff = append(p.TimeOff, off)
	return nil
}

func (r *fakeTherapistRepo) RemoveTimeOff(ctx context.Context, userID, timeOffID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range p.TimeOff {
		if p.TimeOff[i].ID == timeOffID {
			p.TimeOff = append(p.TimeOff[:i], p.TimeOff[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeClientRepo struct {
	mu       sync.Mutex
	profiles map[primitive.ObjectID]*domain.ClientProfile // keyed by user id
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{profiles: make(map[primitive.ObjectID]*domain.ClientProfile)}
}

func (r *fakeClientRepo) Create(ctx context.Context, profile *domain.ClientProfile) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[profile.UserID]; exists {
		return primitive.NilObjectID, repository.ErrConflict
	}
	if profile.ID.IsZero() {
		profile.ID = primitive.NewObjectID()
	}
	cp := *profile
	r.profiles[profile.UserID] = &cp
	return profile.ID, nil
}

func (r *fakeClientRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.ClientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeClientRepo) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, prefs domain.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Preferences = prefs
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[primitive.ObjectID]*domain.Session)}
}

// Create emulates the partial unique index on scheduled sessions: an exact
// (therapist, start, end) duplicate of a scheduled session is a conflict.
func (r *fakeSessionRepo) Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Status == domain.SessionScheduled &&
			s.TherapistID == session.TherapistID &&
			s.Start.Equal(session.Start) && s.End.Equal(session.End) {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	session.CreatedAt = time.Now().UTC()
	session.UpdatedAt = session.CreatedAt
	cp := *session
	r.sessions[session.ID] = &cp
	return session.ID, nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) findOverlapping(match func(*domain.Session) bool, start, end time.Time, excludeID *primitive.ObjectID) []domain.Session {
	var out []domain.Session
	for _, s := range r.sessions {
		if s.Status == domain.SessionCancelled {
			continue
		}
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		if !match(s) {
			continue
		}
		if s.Start.Before(end) && s.End.After(start) {
			out = append(out, *s)
		}
	}
	return out
}

func (r *fakeSessionRepo) FindOverlappingForTherapist(ctx context.Context, therapistID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findOverlapping(func(s *domain.Session) bool { return s.TherapistID == therapistID }, start, end, excludeID), nil
}

func (r *fakeSessionRepo) FindOverlappingForClient(ctx context.Context, clientID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findOverlapping(func(s *domain.Session) bool { return s.ClientID == clientID }, start, end, excludeID), nil
}

func (r *fakeSessionRepo) ListForTherapist(ctx context.Context, therapistID primitive.ObjectID) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, s := range r.sessions {
		if s.TherapistID == therapistID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListForClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, s := range r.sessions {
		if s.ClientID == clientID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) UpdateInterval(ctx context.Context, id primitive.ObjectID, start, end time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Start = start
	s.End = end
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeSessionRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.SessionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeSessionRepo) SetAttachmentKey(ctx context.Context, id primitive.ObjectID, objectKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.AttachmentKey = objectKey
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// fakeFileStorage hands back deterministic URLs.
type fakeFileStorage struct{}

func (fakeFileStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (fakeFileStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (fakeFileStorage) DeleteObject(ctx context.Context, objectKey string) error {
	return nil
}
