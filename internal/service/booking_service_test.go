package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// bookingFixture wires a bookingService against in-memory fakes with a frozen
// clock, plus one therapist (Monday 09:00-12:00) and one client.
type bookingFixture struct {
	svc         *bookingService
	sessions    *fakeSessionRepo
	therapists  *fakeTherapistRepo
	therapistID primitive.ObjectID
	clientID    primitive.ObjectID
	client      domain.RequestingIdentity
	therapist   domain.RequestingIdentity
	now         time.Time
	monday      time.Time
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	userRepo := newFakeUserRepo()
	therapistRepo := newFakeTherapistRepo()
	clientRepo := newFakeClientRepo()
	sessionRepo := newFakeSessionRepo()

	now := time.Date(2026, 9, 4, 10, 0, 0, 0, time.UTC)      // Friday
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)    // next Monday

	therapistID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()

	_, err := therapistRepo.Create(context.Background(), &domain.TherapistProfile{
		UserID: therapistID,
		Availability: []domain.AvailabilityBlock{
			{ID: primitive.NewObjectID(), DayOfWeek: time.Monday, StartTime: "09:00", EndTime: "12:00", RecurringWeekly: true},
		},
	})
	require.NoError(t, err)
	_, err = clientRepo.Create(context.Background(), &domain.ClientProfile{UserID: clientID})
	require.NoError(t, err)

	svc := &bookingService{
		userRepo:      userRepo,
		therapistRepo: therapistRepo,
		clientRepo:    clientRepo,
		sessionRepo:   sessionRepo,
		fileStorage:   fakeFileStorage{},
		locks:         newTherapistLocks(),
		now:           func() time.Time { return now },
	}

	return &bookingFixture{
		svc:         svc,
		sessions:    sessionRepo,
		therapists:  therapistRepo,
		therapistID: therapistID,
		clientID:    clientID,
		client:      domain.RequestingIdentity{UserID: clientID, Role: domain.RoleClient},
		therapist:   domain.RequestingIdentity{UserID: therapistID, Role: domain.RoleTherapist},
		now:         now,
		monday:      monday,
	}
}

func (f *bookingFixture) mondayAt(h, m int) time.Time {
	return f.monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestBookSessionSuccess(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), "first visit")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionScheduled, session.Status)
	assert.Equal(t, f.therapistID, session.TherapistID)
	assert.Equal(t, f.clientID, session.ClientID)
	assert.False(t, session.ID.IsZero())

	stored, err := f.sessions.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, f.mondayAt(9, 0), stored.Start)
}

func TestBookSessionOutsideAvailability(t *testing.T) {
	f := newBookingFixture(t)

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"before opening", f.mondayAt(8, 0), f.mondayAt(8, 30)},
		{"spills past closing", f.mondayAt(11, 45), f.mondayAt(12, 15)},
		{"wrong weekday", f.mondayAt(9, 0).AddDate(0, 0, 1), f.mondayAt(9, 30).AddDate(0, 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, tt.start, tt.end, "")
			assert.ErrorIs(t, err, ErrNotInAvailability)
		})
	}
}

func TestBookSessionTherapistConflict(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(10, 0), "")
	require.NoError(t, err)

	otherClient := primitive.NewObjectID()
	_, err = f.svc.clientRepo.Create(context.Background(), &domain.ClientProfile{UserID: otherClient})
	require.NoError(t, err)

	// Overlapping interval from a different client.
	_, err = f.svc.BookSession(context.Background(), domain.RequestingIdentity{UserID: otherClient, Role: domain.RoleClient},
		f.therapistID, f.mondayAt(9, 30), f.mondayAt(10, 30), "")
	assert.ErrorIs(t, err, ErrTherapistConflict)

	// Back to back with the existing session is fine.
	_, err = f.svc.BookSession(context.Background(), domain.RequestingIdentity{UserID: otherClient, Role: domain.RoleClient},
		f.therapistID, f.mondayAt(10, 0), f.mondayAt(10, 30), "")
	assert.NoError(t, err)
}

func TestBookSessionClientConflict(t *testing.T) {
	f := newBookingFixture(t)

	// Second therapist, available at the same time.
	otherTherapist := primitive.NewObjectID()
	_, err := f.therapists.Create(context.Background(), &domain.TherapistProfile{
		UserID: otherTherapist,
		Availability: []domain.AvailabilityBlock{
			{ID: primitive.NewObjectID(), DayOfWeek: time.Monday, StartTime: "09:00", EndTime: "12:00", RecurringWeekly: true},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(10, 0), "")
	require.NoError(t, err)

	_, err = f.svc.BookSession(context.Background(), f.client, otherTherapist, f.mondayAt(9, 30), f.mondayAt(10, 30), "")
	assert.ErrorIs(t, err, ErrClientConflict)
}

func TestBookSessionCancelledSessionFreesInterval(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(10, 0), "")
	require.NoError(t, err)

	_, err = f.svc.CancelSession(context.Background(), f.client, session.ID)
	require.NoError(t, err)

	// The same interval is bookable again.
	_, err = f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(10, 0), "")
	assert.NoError(t, err)
}

func TestBookSessionUnknownTherapist(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.BookSession(context.Background(), f.client, primitive.NewObjectID(), f.mondayAt(9, 0), f.mondayAt(9, 30), "")
	assert.ErrorIs(t, err, ErrTherapistNotFound)
}

func TestBookSessionInvalidInterval(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(10, 0), f.mondayAt(10, 0), "")
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(10, 0), f.mondayAt(9, 0), "")
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestBookSessionTimeOffVetoesOverlap(t *testing.T) {
	f := newBookingFixture(t)

	require.NoError(t, f.therapists.AddTimeOff(context.Background(), f.therapistID, domain.TimeOff{
		ID:    primitive.NewObjectID(),
		Start: f.mondayAt(10, 0),
		End:   f.mondayAt(11, 0),
	}))

	// Partial overlap with time off is rejected even though the block survives.
	_, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(10, 30), f.mondayAt(11, 30), "")
	assert.ErrorIs(t, err, ErrNotInAvailability)

	// Touching the time-off boundary is fine.
	_, err = f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(10, 0), "")
	assert.NoError(t, err)
}

// Two goroutines race for the same slot; exactly one wins and the loser gets
// a conflict, never a second scheduled session.
func TestBookSessionConcurrentRace(t *testing.T) {
	f := newBookingFixture(t)

	otherClient := primitive.NewObjectID()
	_, err := f.svc.clientRepo.Create(context.Background(), &domain.ClientProfile{UserID: otherClient})
	require.NoError(t, err)

	actors := []domain.RequestingIdentity{
		{UserID: f.clientID, Role: domain.RoleClient},
		{UserID: otherClient, Role: domain.RoleClient},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(actors))
	for i, actor := range actors {
		wg.Add(1)
		go func(i int, actor domain.RequestingIdentity) {
			defer wg.Done()
			_, errs[i] = f.svc.BookSession(context.Background(), actor, f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), "")
		}(i, actor)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrTherapistConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	booked, err := f.sessions.FindOverlappingForTherapist(context.Background(), f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), nil)
	require.NoError(t, err)
	assert.Len(t, booked, 1)
}

func TestCheckRescheduleThenApply(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), "")
	require.NoError(t, err)

	check, err := f.svc.CheckReschedule(context.Background(), f.client, session.ID, f.mondayAt(10, 0), f.mondayAt(10, 30))
	require.NoError(t, err)
	assert.True(t, check.Allowed)

	moved, err := f.svc.ApplyReschedule(context.Background(), f.client, session.ID, f.mondayAt(10, 0), f.mondayAt(10, 30))
	require.NoError(t, err)
	assert.Equal(t, f.mondayAt(10, 0), moved.Start)
	assert.Equal(t, f.mondayAt(10, 30), moved.End)
}

func TestCheckRescheduleReportsReasonWithoutError(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), "")
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end time.Time
		reason     Reason
	}{
		{"outside availability", f.mondayAt(13, 0), f.mondayAt(13, 30), ReasonNotInAvailability},
		{"start in past", f.now.Add(-time.Hour), f.now.Add(-30 * time.Minute), ReasonPast},
		{"inverted interval", f.mondayAt(10, 0), f.mondayAt(9, 0), ReasonInvalidTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := f.svc.CheckReschedule(context.Background(), f.client, session.ID, tt.start, tt.end)
			require.NoError(t, err, "precondition failures are answers, not errors")
			assert.False(t, check.Allowed)
			assert.Equal(t, tt.reason, check.Reason)
			assert.NotEmpty(t, check.Message)
		})
	}
}

func TestRescheduleExcludesOwnInterval(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(10, 0), "")
	require.NoError(t, err)

	// Shifting within the session's own occupied interval must not self-conflict.
	check, err := f.svc.CheckReschedule(context.Background(), f.client, session.ID, f.mondayAt(9, 30), f.mondayAt(10, 30))
	require.NoError(t, err)
	assert.True(t, check.Allowed)

	_, err = f.svc.ApplyReschedule(context.Background(), f.client, session.ID, f.mondayAt(9, 30), f.mondayAt(10, 30))
	assert.NoError(t, err)
}

func TestRescheduleConflictWithOtherSession(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), "")
	require.NoError(t, err)

	otherClient := primitive.NewObjectID()
	_, err = f.svc.clientRepo.Create(context.Background(), &domain.ClientProfile{UserID: otherClient})
	require.NoError(t, err)
	_, err = f.svc.BookSession(context.Background(), domain.RequestingIdentity{UserID: otherClient, Role: domain.RoleClient},
		f.therapistID, f.mondayAt(10, 0), f.mondayAt(10, 30), "")
	require.NoError(t, err)

	_, err = f.svc.ApplyReschedule(context.Background(), f.client, session.ID, f.mondayAt(10, 0), f.mondayAt(10, 30))
	assert.ErrorIs(t, err, ErrTherapistConflict)

	// Unchanged on failure.
	stored, err := f.sessions.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, f.mondayAt(9, 0), stored.Start)
}

func TestRescheduleForbiddenForStranger(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), "")
	require.NoError(t, err)

	stranger := domain.RequestingIdentity{UserID: primitive.NewObjectID(), Role: domain.RoleClient}
	_, err = f.svc.ApplyReschedule(context.Background(), stranger, session.ID, f.mondayAt(10, 0), f.mondayAt(10, 30))
	assert.ErrorIs(t, err, ErrNotOwner)

	// The therapist party may reschedule.
	_, err = f.svc.ApplyReschedule(context.Background(), f.therapist, session.ID, f.mondayAt(10, 0), f.mondayAt(10, 30))
	assert.NoError(t, err)
}

func TestRescheduleCancelledSession(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), "")
	require.NoError(t, err)
	_, err = f.svc.CancelSession(context.Background(), f.client, session.ID)
	require.NoError(t, err)

	check, err := f.svc.CheckReschedule(context.Background(), f.client, session.ID, f.mondayAt(10, 0), f.mondayAt(10, 30))
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.Equal(t, ReasonInvalidStatus, check.Reason)

	_, err = f.svc.ApplyReschedule(context.Background(), f.client, session.ID, f.mondayAt(10, 0), f.mondayAt(10, 30))
	assert.ErrorIs(t, err, ErrNotScheduled)
}

func TestCancelSessionIdempotent(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), "")
	require.NoError(t, err)

	first, err := f.svc.CancelSession(context.Background(), f.client, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCancelled, first.Status)

	second, err := f.svc.CancelSession(context.Background(), f.client, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCancelled, second.Status)
}

func TestCancelCompletedSessionRejected(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), "")
	require.NoError(t, err)
	_, err = f.svc.CompleteSession(context.Background(), f.therapist, session.ID)
	require.NoError(t, err)

	_, err = f.svc.CancelSession(context.Background(), f.client, session.ID)
	assert.ErrorIs(t, err, ErrNotScheduled)
}

func TestCompletedSessionStillOccupiesInterval(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(10, 0), "")
	require.NoError(t, err)
	_, err = f.svc.CompleteSession(context.Background(), f.therapist, session.ID)
	require.NoError(t, err)

	otherClient := primitive.NewObjectID()
	_, err = f.svc.clientRepo.Create(context.Background(), &domain.ClientProfile{UserID: otherClient})
	require.NoError(t, err)
	_, err = f.svc.BookSession(context.Background(), domain.RequestingIdentity{UserID: otherClient, Role: domain.RoleClient},
		f.therapistID, f.mondayAt(9, 30), f.mondayAt(10, 30), "")
	assert.ErrorIs(t, err, ErrTherapistConflict)
}

func TestListSessionsByRole(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), "")
	require.NoError(t, err)

	forClient, err := f.svc.ListSessions(context.Background(), f.client)
	require.NoError(t, err)
	assert.Len(t, forClient, 1)

	forTherapist, err := f.svc.ListSessions(context.Background(), f.therapist)
	require.NoError(t, err)
	assert.Len(t, forTherapist, 1)

	_, err = f.svc.ListSessions(context.Background(), domain.RequestingIdentity{UserID: primitive.NewObjectID(), Role: domain.RoleAdmin})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestAttachmentFlow(t *testing.T) {
	f := newBookingFixture(t)

	session, err := f.svc.BookSession(context.Background(), f.client, f.therapistID, f.mondayAt(9, 0), f.mondayAt(9, 30), "")
	require.NoError(t, err)

	upload, err := f.svc.GetAttachmentUploadURL(context.Background(), f.client, session.ID, "application/pdf")
	require.NoError(t, err)
	assert.Contains(t, upload.ObjectKey, "sessions/"+session.ID.Hex()+"/")
	assert.NotEmpty(t, upload.UploadURL)

	confirmed, err := f.svc.ConfirmAttachment(context.Background(), f.client, session.ID, upload.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, upload.ObjectKey, confirmed.AttachmentKey)

	url, err := f.svc.GetAttachmentDownloadURL(context.Background(), f.therapist, session.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	// A key from another session is rejected.
	_, err = f.svc.ConfirmAttachment(context.Background(), f.client, session.ID, "sessions/someone-else/doc.pdf")
	assert.Error(t, err)
}
