package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResetPasswordHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the password", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		sink := &capturingSink{}

		handler := accounts.NewResetPasswordHandler(repo).
			WithActivitySink(sink).
			WithLogger(testLogger{})

		userID := uuid.New()
		user := &accounts.User{
			ID:           userID,
			Email:        "test@example.com",
			PasswordHash: "old-hash",
		}

		repo.On("Users").Return(users)
		users.On("GetByIdentifierTx", mock.Anything, mock.Anything, userID.String(), mock.Anything).
			Return(user, nil).Once()
		users.On("ResetPasswordTx", mock.Anything, mock.Anything, userID, mock.MatchedBy(func(hash string) bool {
			return hash != "" && hash != "old-hash"
		})).Return(nil).Once()

		expectRunInTx(repo)

		var responded *accounts.User
		err := handler.Execute(ctx, accounts.ResetPasswordMessage{
			UserID:     userID,
			Password:   "newpassword123",
			OnResponse: func(u *accounts.User) { responded = u },
		})

		require.NoError(t, err)
		require.NotNil(t, responded)
		assert.NotEqual(t, "old-hash", responded.PasswordHash)
		assert.NoError(t, accounts.ComparePasswordAndHash("newpassword123", responded.PasswordHash))

		require.Len(t, sink.events, 1)
		assert.Equal(t, accounts.ActivityEventPasswordResetSuccess, sink.events[0].EventType)
		assert.Equal(t, userID.String(), sink.events[0].UserID)

		repo.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("unknown user surfaces not found", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}

		handler := accounts.NewResetPasswordHandler(repo).WithLogger(testLogger{})

		userID := uuid.New()

		repo.On("Users").Return(users)
		users.On("GetByIdentifierTx", mock.Anything, mock.Anything, userID.String(), mock.Anything).
			Return(nil, repository.NewRecordNotFound()).Once()

		expectRunInTx(repo)

		err := handler.Execute(ctx, accounts.ResetPasswordMessage{
			UserID:   userID,
			Password: "newpassword123",
		})

		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))

		users.AssertNotCalled(t, "ResetPasswordTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("weak password is rejected up front", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		handler := accounts.NewResetPasswordHandler(repo).WithLogger(testLogger{})

		err := handler.Execute(ctx, accounts.ResetPasswordMessage{
			UserID:   uuid.New(),
			Password: "short",
		})

		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryValidation, richErr.Category)

		repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing user id is rejected", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		handler := accounts.NewResetPasswordHandler(repo).WithLogger(testLogger{})

		err := handler.Execute(ctx, accounts.ResetPasswordMessage{Password: "newpassword123"})

		require.Error(t, err)
		repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
	})
}
