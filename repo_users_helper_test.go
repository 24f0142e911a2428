package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubStandingMachine struct {
	lastTarget AccountStanding
	err        error
}

func (s *stubStandingMachine) Transition(ctx context.Context, actor ActorRef, user *User, target AccountStanding, opts ...TransitionOption) (*User, error) {
	s.lastTarget = target
	return user, s.err
}

func (s *stubStandingMachine) CurrentStanding(user *User) AccountStanding {
	if user == nil {
		return ""
	}
	return user.Standing
}

func TestUsersLockUnlockDelegation(t *testing.T) {
	t.Parallel()

	stub := &stubStandingMachine{}
	repo := &users{
		standingMachine: stub,
	}

	actor := ActorRef{ID: "admin", Type: "user"}
	u := &User{Standing: StandingActive}

	_, err := repo.Lock(context.Background(), actor, u)
	assert.NoError(t, err)
	assert.Equal(t, StandingLocked, stub.lastTarget)

	_, err = repo.Unlock(context.Background(), actor, u)
	assert.NoError(t, err)
	assert.Equal(t, StandingActive, stub.lastTarget)
}

func TestResolveUserIdentifier(t *testing.T) {
	t.Parallel()

	t.Run("uuid matches id then nickname", func(t *testing.T) {
		id := uuid.NewString()
		options := resolveUserIdentifier(id)

		assert.Len(t, options, 2)
		assert.Equal(t, "id", options[0].column)
		assert.Equal(t, id, options[0].value)
		assert.Equal(t, "nickname", options[1].column)
	})

	t.Run("email matches email then nickname", func(t *testing.T) {
		options := resolveUserIdentifier("test@example.com")

		assert.Len(t, options, 2)
		assert.Equal(t, "email", options[0].column)
		assert.Equal(t, "nickname", options[1].column)
	})

	t.Run("plain string matches nickname only", func(t *testing.T) {
		options := resolveUserIdentifier("testuser")

		assert.Len(t, options, 1)
		assert.Equal(t, "nickname", options[0].column)
		assert.Equal(t, "testuser", options[0].value)
	})

	t.Run("whitespace is trimmed", func(t *testing.T) {
		options := resolveUserIdentifier("  testuser  ")

		assert.Len(t, options, 1)
		assert.Equal(t, "testuser", options[0].value)
	})

	t.Run("empty identifier has no options", func(t *testing.T) {
		assert.Empty(t, resolveUserIdentifier("   "))
	})
}

func TestPrepareUserDefaults(t *testing.T) {
	t.Parallel()

	t.Run("fills role standing and id", func(t *testing.T) {
		record := &User{}
		prepareUserDefaults(record)

		assert.Equal(t, RoleAnonymous, record.Role)
		assert.Equal(t, StandingActive, record.Standing)
		assert.NotEqual(t, uuid.Nil, record.ID)
	})

	t.Run("keeps provided values", func(t *testing.T) {
		id := uuid.New()
		record := &User{
			ID:       id,
			Role:     RoleAdmin,
			Standing: StandingLocked,
		}
		prepareUserDefaults(record)

		assert.Equal(t, id, record.ID)
		assert.Equal(t, RoleAdmin, record.Role)
		assert.Equal(t, StandingLocked, record.Standing)
	})

	t.Run("nil record is a no-op", func(t *testing.T) {
		prepareUserDefaults(nil)
	})
}

func TestGetNickname(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "custom", getNickname("custom", "test@example.com"))
	assert.Equal(t, "test", getNickname("", "test@example.com"))
	assert.Equal(t, "", getNickname("", "no-at-sign"))
}
