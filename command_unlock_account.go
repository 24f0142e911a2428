package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// UnlockAccountMessage clears the lock flag and forgives past failed logins
type UnlockAccountMessage struct {
	UserID     uuid.UUID `json:"user_id"`
	Actor      ActorRef  `json:"-"`
	Reason     string    `json:"reason,omitempty"`
	OnResponse func(user *User)
}

func (e UnlockAccountMessage) Type() string { return "account.unlock" }

type UnlockAccountHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

// NewUnlockAccountHandler creates a handler with sane defaults.
func NewUnlockAccountHandler(repo RepositoryManager) *UnlockAccountHandler {
	return &UnlockAccountHandler{
		repo:   repo,
		mailer: NewLogMailer(nil),
		logger: defLogger{},
	}
}

// WithMailer sets the outbound notification collaborator.
func (h *UnlockAccountHandler) WithMailer(m Mailer) *UnlockAccountHandler {
	h.mailer = normalizeMailer(m)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *UnlockAccountHandler) WithLogger(logger Logger) *UnlockAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UnlockAccountHandler) Execute(ctx context.Context, event UnlockAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account unlock",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UnlockAccountHandler) execute(ctx context.Context, event UnlockAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.UserID == uuid.Nil {
		return goerrors.New("user id is required", goerrors.CategoryBadInput)
	}

	actor := event.Actor
	if actor == (ActorRef{}) {
		actor = ActorRef{Type: "system"}
	}

	opts := []TransitionOption{}
	if event.Reason != "" {
		opts = append(opts, WithTransitionReason(event.Reason))
	}

	user, err := h.repo.Users().GetByIdentifier(ctx, event.UserID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for unlock")
	}

	// the standing machine validates locked -> active and emits the
	// unlock activity event
	if user, err = h.repo.Users().Unlock(ctx, actor, user, opts...); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to unlock account")
	}

	if err := h.mailer.SendAccountUnlockedEmail(ctx, user); err != nil {
		h.logger.Warn("failed to send account unlocked email", "error", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
