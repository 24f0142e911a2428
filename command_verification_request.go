package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ResetVerificationMessage checks whether a password reset request is still
// actionable before showing the change-password form
type ResetVerificationMessage struct {
	Session    string `json:"session" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Reset password session token"`
	OnResponse func(a *ResetVerificationResponse)
}

func (e ResetVerificationMessage) Type() string { return "user.password_reset_check" }

type ResetVerificationResponse struct {
	Stage   string `json:"stage"`
	Expired bool   `json:"expired" example:"true" doc:"Has the request expired?"`
	Found   bool   `json:"found" example:"true" doc:"Has the request been found?"`
}

type ResetVerificationHandler struct {
	repo RepositoryManager
}

// NewResetVerificationHandler creates a handler backed by the given repositories.
func NewResetVerificationHandler(repo RepositoryManager) *ResetVerificationHandler {
	return &ResetVerificationHandler{repo: repo}
}

func (h *ResetVerificationHandler) Execute(ctx context.Context, event ResetVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during reset verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetVerificationHandler) execute(ctx context.Context, event ResetVerificationMessage) error {
	reset := &PasswordReset{}
	resp := &ResetVerificationResponse{Stage: ChangingPassword}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		reset, err = h.repo.PasswordResets().GetByID(ctx, event.Session)
		if err != nil {
			// a missing record is part of the expected flow, not an
			// application error
			if goerrors.IsNotFound(err) {
				resp.Found = false
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve reset request")
		}

		resp.Found = true

		if reset.Status != ResetRequestedStatus {
			resp.Expired = true
			return nil
		}

		if reset.CreatedAt == nil {
			return goerrors.New("password reset record is missing creation date", goerrors.CategoryInternal)
		}

		expired, err := IsOutsideThresholdPeriod(*reset.CreatedAt, ResetRequestTTL)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check token expiration period")
		}

		resp.Expired = expired
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to execute reset verification")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
