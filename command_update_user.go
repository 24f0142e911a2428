package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpdateUserMessage applies a validated partial update to an account
type UpdateUserMessage struct {
	UserID     uuid.UUID         `json:"user_id"`
	Payload    UpdateUserPayload `json:"payload"`
	OnResponse func(user *User)
}

func (e UpdateUserMessage) Type() string { return "user.update" }

type UpdateUserHandler struct {
	repo   RepositoryManager
	sink   ActivitySink
	logger Logger
}

// NewUpdateUserHandler creates a handler with sane defaults.
func NewUpdateUserHandler(repo RepositoryManager) *UpdateUserHandler {
	return &UpdateUserHandler{
		repo:   repo,
		sink:   noopActivitySink{},
		logger: defLogger{},
	}
}

// WithActivitySink sets the sink used to emit account events.
func (h *UpdateUserHandler) WithActivitySink(sink ActivitySink) *UpdateUserHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *UpdateUserHandler) WithLogger(logger Logger) *UpdateUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateUserHandler) Execute(ctx context.Context, event UpdateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateUserHandler) execute(ctx context.Context, event UpdateUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.UserID == uuid.Nil {
		return goerrors.New("user id is required", goerrors.CategoryBadInput)
	}

	if event.Payload.IsEmpty() {
		return goerrors.New("update payload carries no changes", goerrors.CategoryBadInput)
	}

	if err := event.Payload.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid update payload").
			WithMetadata(map[string]any{
				"fields": FormatValidationErrorToMap(err),
			})
	}

	user := &User{}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByIdentifierTx(ctx, tx, event.UserID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return err
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for update")
		}

		if event.Payload.Email != "" && event.Payload.Email != user.Email {
			if err := ensureUniqueIdentity(ctx, tx, h.repo.Users(), event.Payload.Email, ""); err != nil {
				return err
			}
			user.Email = event.Payload.Email
		}

		if event.Payload.Nickname != "" && event.Payload.Nickname != user.Nickname {
			if err := ensureUniqueIdentity(ctx, tx, h.repo.Users(), "", event.Payload.Nickname); err != nil {
				return err
			}
			user.Nickname = event.Payload.Nickname
		}

		if event.Payload.FirstName != "" {
			user.FirstName = event.Payload.FirstName
		}

		if event.Payload.LastName != "" {
			user.LastName = event.Payload.LastName
		}

		if event.Payload.Phone != "" {
			user.Phone = event.Payload.Phone
		}

		if event.Payload.Role != "" {
			user.Role = event.Payload.Role
		}

		if user, err = h.repo.Users().UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String())); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user update transaction failed")
	}

	h.recordActivity(ctx, user)

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

func (h *UpdateUserHandler) recordActivity(ctx context.Context, user *User) {
	event := ActivityEvent{
		EventType: ActivityEventUserUpdated,
		Actor:     ActorRef{Type: "system"},
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"email":    user.Email,
			"nickname": user.Nickname,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.sink).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during user update: %v", err)
	}
}
