package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// CreateUserMessage is the admin-style create operation, the account is
// provisioned directly with the given role
type CreateUserMessage struct {
	Payload      CreateUserPayload `json:"payload"`
	MarkVerified bool              `json:"mark_verified" doc:"Skip email verification for this account."`
	OnResponse   func(user *User)
}

func (e CreateUserMessage) Type() string { return "user.create" }

type CreateUserHandler struct {
	repo   RepositoryManager
	mailer Mailer
	sink   ActivitySink
	logger Logger
	Debug  bool
}

// NewCreateUserHandler creates a handler with sane defaults.
func NewCreateUserHandler(repo RepositoryManager) *CreateUserHandler {
	return &CreateUserHandler{
		repo:   repo,
		mailer: NewLogMailer(nil),
		sink:   noopActivitySink{},
		logger: defLogger{},
	}
}

// WithMailer sets the outbound notification collaborator.
func (h *CreateUserHandler) WithMailer(m Mailer) *CreateUserHandler {
	h.mailer = normalizeMailer(m)
	return h
}

// WithActivitySink sets the sink used to emit account events.
func (h *CreateUserHandler) WithActivitySink(sink ActivitySink) *CreateUserHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *CreateUserHandler) WithLogger(logger Logger) *CreateUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *CreateUserHandler) Execute(ctx context.Context, event CreateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateUserHandler) execute(ctx context.Context, event CreateUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if h.Debug {
		fmt.Println("======= USER CREATE ======")
		fmt.Println(print.MaybePrettyJSON(event.Payload))
		fmt.Println("==========================")
	}

	if err := event.Payload.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user payload").
			WithMetadata(map[string]any{
				"fields": FormatValidationErrorToMap(err),
			})
	}

	user := &User{}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := ensureUniqueIdentity(ctx, tx, h.repo.Users(), event.Payload.Email, event.Payload.Nickname); err != nil {
			return err
		}

		hash, err := HashPassword(event.Payload.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Payload.Email
		user.Phone = event.Payload.Phone
		user.FirstName = event.Payload.FirstName
		user.LastName = event.Payload.LastName
		user.Nickname = getNickname(event.Payload.Nickname, event.Payload.Email)
		user.Role = event.Payload.Role
		if user.Role == "" {
			user.Role = RoleAuthenticated
		}

		if event.MarkVerified {
			user.EmailVerified = true
		} else {
			user.VerificationToken = NewVerificationToken()
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user creation transaction failed")
	}

	if !user.EmailVerified {
		if err := h.mailer.SendVerificationEmail(ctx, user); err != nil {
			h.logger.Warn("failed to send verification email", "error", err)
		}
	}

	h.recordActivity(ctx, ActivityEventUserCreated, user)

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

func (h *CreateUserHandler) recordActivity(ctx context.Context, eventType ActivityEventType, user *User) {
	event := ActivityEvent{
		EventType: eventType,
		Actor:     ActorRef{Type: "system"},
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"email":    user.Email,
			"nickname": user.Nickname,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.sink).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during user creation: %v", err)
	}
}

// ensureUniqueIdentity fails with a conflict when the email or nickname is
// already registered, email wins when both collide. Lookups are exact per
// column so a uuid-shaped nickname never matches another user's id.
func ensureUniqueIdentity(ctx context.Context, tx bun.IDB, users Users, email, nickname string) error {
	if email != "" {
		if _, err := users.GetByEmailTx(ctx, tx, email); err == nil {
			return ErrEmailTaken
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		}
	}

	if nickname != "" {
		if _, err := users.GetByNicknameTx(ctx, tx, nickname); err == nil {
			return ErrNicknameTaken
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check nickname uniqueness")
		}
	}

	return nil
}

func getNickname(nickname, email string) string {
	if nickname != "" {
		return nickname
	}

	if strings.Contains(email, "@") {
		nickname = strings.Split(email, "@")[0]
	}

	return nickname
}
