package accounts_test

import (
	"context"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStandingMachineLockSetsTimestamp(t *testing.T) {
	repo := &MockUsers{}
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &accounts.User{
		ID:       uuid.New(),
		Standing: accounts.StandingActive,
	}

	expected := &accounts.User{
		ID:       user.ID,
		Standing: accounts.StandingLocked,
		LockedAt: &now,
	}

	repo.On("SetStanding", mock.Anything, user.ID, accounts.StandingLocked, mock.Anything).
		Return(expected, nil).Once()

	sm := accounts.NewStandingMachine(repo, accounts.WithStandingMachineClock(func() time.Time { return now }))

	result, err := sm.Transition(context.Background(), accounts.ActorRef{ID: "admin"}, user, accounts.StandingLocked)
	require.NoError(t, err)
	assert.True(t, result.IsLocked())
	require.NotNil(t, result.LockedAt)
	assert.Equal(t, now, result.LockedAt.UTC())
	repo.AssertExpectations(t)
}

func TestStandingMachineRejectsSameStanding(t *testing.T) {
	repo := &MockUsers{}
	user := &accounts.User{
		ID:       uuid.New(),
		Standing: accounts.StandingActive,
	}

	sm := accounts.NewStandingMachine(repo)

	_, err := sm.Transition(context.Background(), accounts.ActorRef{}, user, accounts.StandingActive)
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrStandingUnchanged)
	repo.AssertNotCalled(t, "SetStanding", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStandingMachineRejectsEmptyTarget(t *testing.T) {
	repo := &MockUsers{}
	user := &accounts.User{
		ID:       uuid.New(),
		Standing: accounts.StandingActive,
	}

	sm := accounts.NewStandingMachine(repo)

	_, err := sm.Transition(context.Background(), accounts.ActorRef{}, user, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrInvalidStanding)
	repo.AssertNotCalled(t, "SetStanding", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStandingMachineForceAllowsSameStanding(t *testing.T) {
	repo := &MockUsers{}
	user := &accounts.User{
		ID:       uuid.New(),
		Standing: accounts.StandingActive,
	}

	sm := accounts.NewStandingMachine(repo)

	result, err := sm.Transition(
		context.Background(),
		accounts.ActorRef{},
		user,
		accounts.StandingActive,
		accounts.WithForceTransition(),
	)
	require.NoError(t, err)
	assert.Equal(t, accounts.StandingActive, result.Standing)
	repo.AssertNotCalled(t, "SetStanding", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStandingMachineUnlockClearsTimestampAndCounters(t *testing.T) {
	repo := &MockUsers{}
	now := time.Now()
	attemptAt := now.Add(-time.Minute)
	user := &accounts.User{
		ID:             uuid.New(),
		Standing:       accounts.StandingLocked,
		LockedAt:       &now,
		LoginAttempts:  5,
		LoginAttemptAt: &attemptAt,
	}

	repo.On("SetStanding", mock.Anything, user.ID, accounts.StandingActive, mock.Anything).
		Return(&accounts.User{ID: user.ID, Standing: accounts.StandingActive}, nil).Once()

	sm := accounts.NewStandingMachine(repo)

	result, err := sm.Transition(context.Background(), accounts.ActorRef{}, user, accounts.StandingActive)
	require.NoError(t, err)
	assert.False(t, result.IsLocked())
	assert.Nil(t, result.LockedAt)
	assert.Equal(t, 0, result.LoginAttempts)
	assert.Nil(t, result.LoginAttemptAt)
	repo.AssertExpectations(t)
}

func TestStandingMachineRunsHooksWithMetadata(t *testing.T) {
	repo := &MockUsers{}
	user := &accounts.User{
		ID:       uuid.New(),
		Standing: accounts.StandingActive,
	}

	ts := time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)

	repo.On("SetStanding", mock.Anything, user.ID, accounts.StandingLocked, mock.Anything).
		Return(&accounts.User{ID: user.ID, Standing: accounts.StandingLocked, LockedAt: &ts}, nil).Once()

	var beforeCalled, afterCalled bool
	var reasonSeen string
	var metadataSeen map[string]any

	before := func(ctx context.Context, tc accounts.TransitionContext) error {
		beforeCalled = true
		reasonSeen = tc.Meta.Reason
		metadataSeen = tc.Meta.Metadata
		return nil
	}
	after := func(ctx context.Context, tc accounts.TransitionContext) error {
		afterCalled = true
		return nil
	}

	sm := accounts.NewStandingMachine(repo, accounts.WithStandingMachineClock(func() time.Time { return ts }))

	metadata := map[string]any{"ticket": "123"}

	_, err := sm.Transition(
		context.Background(),
		accounts.ActorRef{ID: "admin"},
		user,
		accounts.StandingLocked,
		accounts.WithTransitionReason("policy"),
		accounts.WithTransitionMetadata(metadata),
		accounts.WithBeforeTransitionHook(before),
		accounts.WithAfterTransitionHook(after),
	)
	require.NoError(t, err)
	assert.True(t, beforeCalled)
	assert.True(t, afterCalled)
	assert.Equal(t, "policy", reasonSeen)
	require.NotNil(t, metadataSeen)
	assert.Equal(t, "123", metadataSeen["ticket"])
	repo.AssertExpectations(t)
}

func TestStandingMachineEmitsActivityEvent(t *testing.T) {
	repo := &MockUsers{}
	sink := &MockActivitySink{}
	now := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	user := &accounts.User{
		ID:       uuid.New(),
		Standing: accounts.StandingActive,
	}

	repo.On("SetStanding", mock.Anything, user.ID, accounts.StandingLocked, mock.Anything).
		Return(&accounts.User{ID: user.ID, Standing: accounts.StandingLocked}, nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt accounts.ActivityEvent) bool {
		return evt.EventType == accounts.ActivityEventAccountLocked &&
			evt.UserID == user.ID.String() &&
			evt.FromStanding == accounts.StandingActive &&
			evt.ToStanding == accounts.StandingLocked
	})).Return(nil).Once()

	sm := accounts.NewStandingMachine(
		repo,
		accounts.WithStandingMachineClock(func() time.Time { return now }),
		accounts.WithStandingMachineActivitySink(sink),
	)

	_, err := sm.Transition(context.Background(), accounts.ActorRef{ID: "admin"}, user, accounts.StandingLocked)
	require.NoError(t, err)

	repo.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestStandingMachineCurrentStandingDefaults(t *testing.T) {
	sm := accounts.NewStandingMachine(&MockUsers{})

	assert.Equal(t, accounts.AccountStanding(""), sm.CurrentStanding(nil))
	assert.Equal(t, accounts.StandingActive, sm.CurrentStanding(&accounts.User{}))
	assert.Equal(t, accounts.StandingLocked, sm.CurrentStanding(&accounts.User{Standing: accounts.StandingLocked}))
}
