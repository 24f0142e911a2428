package accounts

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidStanding  = "INVALID_ACCOUNT_STANDING_TRANSITION"
	textCodeStandingNoChange = "ACCOUNT_STANDING_UNCHANGED"
)

// ErrInvalidStanding is returned when a requested standing change is not allowed.
var ErrInvalidStanding = goerrors.New("invalid account standing transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidStanding).
	WithCode(goerrors.CodeBadRequest)

// ErrStandingUnchanged is returned when the account already holds the target standing.
var ErrStandingUnchanged = goerrors.New("account already in target standing", goerrors.CategoryConflict).
	WithTextCode(textCodeStandingNoChange).
	WithCode(goerrors.CodeConflict)

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor ActorRef
	User  *User
	From  AccountStanding
	To    AccountStanding
	Meta  TransitionMetadata
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionHookPhase identifies whether a hook ran before or after persistence.
type TransitionHookPhase string

const (
	HookPhaseBefore TransitionHookPhase = "before_transition"
	HookPhaseAfter  TransitionHookPhase = "after_transition"
)

// TransitionOption customizes state machine behavior.
type TransitionOption func(*transitionOptions)

// StandingMachine defines lockout lifecycle operations for accounts.
type StandingMachine interface {
	Transition(ctx context.Context, actor ActorRef, user *User, target AccountStanding, opts ...TransitionOption) (*User, error)
	CurrentStanding(user *User) AccountStanding
}

// HookErrorHandler handles errors surfaced by transition hooks.
type HookErrorHandler func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error

// StandingMachineOption customizes state machine construction.
type StandingMachineOption func(*standingMachine)

// WithStandingMachineClock injects a custom clock (useful for tests).
func WithStandingMachineClock(clock func() time.Time) StandingMachineOption {
	return func(sm *standingMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStandingMachineActivitySink sets the ActivitySink used to publish lockout events.
func WithStandingMachineActivitySink(sink ActivitySink) StandingMachineOption {
	return func(sm *standingMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStandingMachineHookErrorHandler overrides how hook failures are propagated.
// Provide a handler to convert hook errors into domain-specific responses,
// otherwise the default handler panics with guidance for developers.
func WithStandingMachineHookErrorHandler(handler HookErrorHandler) StandingMachineOption {
	return func(sm *standingMachine) {
		if handler != nil {
			sm.hookErrorHandler = handler
		}
	}
}

// WithStandingMachineLogger overrides the logger used for sink failures.
func WithStandingMachineLogger(logger Logger) StandingMachineOption {
	return func(sm *standingMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithForceTransition bypasses validation rules (use sparingly).
func WithForceTransition() TransitionOption {
	return func(opts *transitionOptions) {
		opts.force = true
	}
}

// WithBeforeTransitionHook adds a hook executed before the standing update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the standing update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// WithLockTime overrides the timestamp recorded when entering the locked standing.
func WithLockTime(t time.Time) TransitionOption {
	return func(opts *transitionOptions) {
		opts.lockTime = &t
	}
}

// NewStandingMachine returns the default implementation backed by the provided repository.
func NewStandingMachine(users Users, opts ...StandingMachineOption) StandingMachine {
	sm := &standingMachine{
		users: users,
		transitions: map[AccountStanding]map[AccountStanding]struct{}{
			StandingActive: {
				StandingLocked: {},
			},
			StandingLocked: {
				StandingActive: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		hookErrorHandler: func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
			return defaultHookErrorHandler(ctx, phase, err, tc)
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type standingMachine struct {
	users            Users
	transitions      map[AccountStanding]map[AccountStanding]struct{}
	now              func() time.Time
	activitySink     ActivitySink
	logger           Logger
	hookErrorHandler HookErrorHandler
}

type transitionOptions struct {
	metadata    TransitionMetadata
	force       bool
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
	lockTime    *time.Time
}

func (o *transitionOptions) cloneMetadata() TransitionMetadata {
	var cloned map[string]any
	if len(o.metadata.Metadata) > 0 {
		cloned = make(map[string]any, len(o.metadata.Metadata))
		for k, v := range o.metadata.Metadata {
			cloned[k] = v
		}
	}

	return TransitionMetadata{
		Reason:   o.metadata.Reason,
		Metadata: cloned,
	}
}

func (sm *standingMachine) Transition(ctx context.Context, actor ActorRef, user *User, target AccountStanding, opts ...TransitionOption) (*User, error) {
	if user == nil {
		return nil, ErrInvalidStanding.WithMetadata(map[string]any{
			"target": target,
			"reason": "user is nil",
		})
	}

	user.EnsureStanding()
	from := user.Standing
	if target == "" {
		return nil, ErrInvalidStanding.WithMetadata(map[string]any{
			"reason": "target standing is empty",
		})
	}

	options := sm.buildTransitionOptions(opts...)

	if from == target {
		if options.force {
			return user, nil
		}
		return nil, ErrStandingUnchanged.WithMetadata(map[string]any{
			"standing": from,
		})
	}

	if !options.force && !sm.canTransition(from, target) {
		return nil, ErrInvalidStanding.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	ctxData := TransitionContext{
		Actor: actor,
		User:  user,
		From:  from,
		To:    target,
		Meta:  options.cloneMetadata(),
	}

	if err := sm.runHooks(ctx, options.beforeHooks, ctxData, HookPhaseBefore); err != nil {
		return nil, err
	}

	standingOpts, chosenLockTime := sm.buildStandingOptions(user, target, options)

	updated, err := sm.users.SetStanding(ctx, user.ID, target, standingOpts...)
	if err != nil {
		return nil, err
	}

	sm.applyUpdates(user, updated, target, chosenLockTime)

	if err := sm.runHooks(ctx, options.afterHooks, ctxData, HookPhaseAfter); err != nil {
		return nil, err
	}

	eventType := ActivityEventAccountUnlocked
	if target == StandingLocked {
		eventType = ActivityEventAccountLocked
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:    eventType,
		Actor:        actor,
		UserID:       user.ID.String(),
		FromStanding: from,
		ToStanding:   target,
		Metadata:     sm.transitionMetadata(ctxData.Meta),
	})

	return user, nil
}

func (sm *standingMachine) CurrentStanding(user *User) AccountStanding {
	if user == nil {
		return ""
	}
	user.EnsureStanding()
	return user.Standing
}

func (sm *standingMachine) runHooks(ctx context.Context, hooks []TransitionHook, data TransitionContext, phase TransitionHookPhase) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, data); err != nil {
			if sm.hookErrorHandler == nil {
				return err
			}
			return sm.hookErrorHandler(ctx, phase, err, data)
		}
	}
	return nil
}

func (sm *standingMachine) canTransition(from, to AccountStanding) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *standingMachine) buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

func (sm *standingMachine) buildStandingOptions(user *User, to AccountStanding, opts *transitionOptions) ([]StandingUpdateOption, *time.Time) {
	standingOpts := []StandingUpdateOption{}
	var lockTime *time.Time

	if to == StandingLocked {
		switch {
		case opts.lockTime != nil:
			lockTime = opts.lockTime
		case user.LockedAt != nil:
			lockTime = user.LockedAt
		default:
			now := sm.now()
			lockTime = &now
		}
		standingOpts = append(standingOpts, WithLockedAt(lockTime))
	}

	return standingOpts, lockTime
}

func defaultHookErrorHandler(_ context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
	panic(fmt.Sprintf(
		"go-accounts: %s transition hook failed: %v\nUserID: %s from=%s to=%s reason=%s\nProvide accounts.WithStandingMachineHookErrorHandler to customize error handling in production.",
		phase,
		err,
		tc.User.ID,
		tc.From,
		tc.To,
		tc.Meta.Reason,
	))
}

func (sm *standingMachine) applyUpdates(user, updated *User, target AccountStanding, lockTime *time.Time) {
	if updated != nil {
		if updated.Standing != "" {
			user.Standing = updated.Standing
		} else {
			user.Standing = target
		}
		user.LockedAt = updated.LockedAt
		if target == StandingActive {
			user.LoginAttempts = 0
			user.LoginAttemptAt = nil
		}
		return
	}

	user.Standing = target
	if target == StandingLocked {
		user.LockedAt = lockTime
	} else {
		user.LockedAt = nil
		user.LoginAttempts = 0
		user.LoginAttemptAt = nil
	}
}

func (sm *standingMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("standing machine activity sink error: %v", err)
	}
}

func (sm *standingMachine) transitionMetadata(meta TransitionMetadata) map[string]any {
	if meta.Reason == "" && len(meta.Metadata) == 0 {
		return nil
	}

	result := map[string]any{}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}
