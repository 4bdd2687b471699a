package service

import (
	"context"
	"testing"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (AuthService, *fakeTherapistRepo, *fakeClientRepo) {
	t.Helper()
	therapistRepo := newFakeTherapistRepo()
	clientRepo := newFakeClientRepo()
	svc := NewAuthService(newFakeUserRepo(), therapistRepo, clientRepo, "test-secret", time.Hour)
	return svc, therapistRepo, clientRepo
}

func TestRegisterCreatesMatchingProfile(t *testing.T) {
	svc, therapistRepo, clientRepo := newAuthFixture(t)

	therapist, err := svc.Register(context.Background(), "Dana", "dana@example.com", "hunter22", domain.RoleTherapist)
	require.NoError(t, err)
	assert.Empty(t, therapist.PasswordHash)
	_, err = therapistRepo.GetByUserID(context.Background(), therapist.ID)
	assert.NoError(t, err, "therapist registration creates an empty schedule profile")

	client, err := svc.Register(context.Background(), "Sam", "sam@example.com", "hunter22", domain.RoleClient)
	require.NoError(t, err)
	_, err = clientRepo.GetByUserID(context.Background(), client.ID)
	assert.NoError(t, err, "client registration creates an empty preferences profile")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), "Dana", "dana@example.com", "hunter22", domain.RoleTherapist)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Other", "dana@example.com", "hunter22", domain.RoleClient)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), "", "dana@example.com", "hunter22", domain.RoleClient)
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), "Dana", "dana@example.com", "hunter22", domain.Role("manager"))
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), "Dana", "dana@example.com", "hunter22", domain.RoleClient)
	require.NoError(t, err)

	token, user, err := svc.Login(context.Background(), "dana@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	_, _, err = svc.Login(context.Background(), "dana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
