package accounts

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"is_email_verified" = TRUE,
	"password_hash" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// MarkEmailVerifiedSQL consumes the verification token and promotes anonymous
// accounts in the same statement so the token can never be replayed
var MarkEmailVerifiedSQL = `UPDATE "users" AS "usr"
SET
	"is_email_verified" = TRUE,
	"verification_token" = NULL,
	"user_role" = CASE WHEN "user_role" = 'anonymous' THEN 'authenticated' ELSE "user_role" END
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

type Users interface {
	repository.Repository[*User]

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByNicknameTx(ctx context.Context, tx bun.IDB, nickname string) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	ListPage(ctx context.Context, page Page) ([]*User, error)
	ListPageTx(ctx context.Context, tx bun.IDB, page Page) ([]*User, error)
	CountUsers(ctx context.Context) (int, error)
	CountUsersTx(ctx context.Context, tx bun.IDB) (int, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	SetStanding(ctx context.Context, id uuid.UUID, standing AccountStanding, opts ...StandingUpdateOption) (*User, error)
	SetStandingTx(ctx context.Context, tx bun.IDB, id uuid.UUID, standing AccountStanding, opts ...StandingUpdateOption) (*User, error)
	Lock(ctx context.Context, actor ActorRef, user *User, opts ...TransitionOption) (*User, error)
	Unlock(ctx context.Context, actor ActorRef, user *User, opts ...TransitionOption) (*User, error)

	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
}

// Page bounds a listing, Limit falls back to DefaultPageLimit when zero
type Page struct {
	Skip  int
	Limit int
}

// DefaultPageLimit bounds listings that do not specify a limit
var DefaultPageLimit = 50

type users struct {
	repository.Repository[*User]
	db              *bun.DB
	standingMachine StandingMachine
	standingOptions []StandingMachineOption
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

type UsersOption func(*users)

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func WithUsersStandingMachineOptions(options ...StandingMachineOption) UsersOption {
	return func(u *users) {
		if len(options) == 0 {
			return
		}
		u.standingOptions = append(u.standingOptions, options...)
		u.standingMachine = nil
	}
}

func WithUsersStandingMachine(sm StandingMachine) UsersOption {
	return func(u *users) {
		u.standingMachine = sm
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

// GetByEmailTx matches the email column only. GetByIdentifierTx is too loose
// for uniqueness checks, a uuid-shaped nickname would match the id column of
// an unrelated user.
func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return a.getByColumnTx(ctx, tx, "email", strings.TrimSpace(email))
}

// GetByNicknameTx matches the nickname column only.
func (a *users) GetByNicknameTx(ctx context.Context, tx bun.IDB, nickname string) (*User, error) {
	return a.getByColumnTx(ctx, tx, "nickname", strings.TrimSpace(nickname))
}

func (a *users) getByColumnTx(ctx context.Context, tx bun.IDB, column, value string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// ListPage pages users by skip/limit, distinct from the criteria-driven List
// promoted from the embedded repository.
func (a *users) ListPage(ctx context.Context, page Page) ([]*User, error) {
	return a.ListPageTx(ctx, a.db, page)
}

func (a *users) ListPageTx(ctx context.Context, tx bun.IDB, page Page) ([]*User, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	skip := page.Skip
	if skip < 0 {
		skip = 0
	}

	records := []*User{}
	err := tx.NewSelect().
		Model(&records).
		Order("usr.created_at ASC", "usr.id ASC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *users) CountUsers(ctx context.Context) (int, error) {
	return a.CountUsersTx(ctx, a.db)
}

func (a *users) CountUsersTx(ctx context.Context, tx bun.IDB) (int, error) {
	return tx.NewSelect().Model((*User)(nil)).Count(ctx)
}

func (a *users) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return a.DeleteByIDTx(ctx, a.db, id)
}

func (a *users) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, ResetUserPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return a.MarkEmailVerifiedTx(ctx, a.db, id)
}

func (a *users) MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := a.Repository.RawTx(ctx, tx, MarkEmailVerifiedSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	// NOTE: Updating using the ORM wont reset login_attempt_at and
	// login_attempts back to their zero values, so we go raw.
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(user.ID.String()),
	}

	record := &User{}
	record.ID = user.ID
	record.LoginAttempts = user.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.UpdateTx(ctx, tx, record, criteria...)
	if err != nil {
		return err
	}

	user.LoginAttempts = record.LoginAttempts
	user.LoginAttemptAt = record.LoginAttemptAt

	return nil
}

func (a *users) SetStanding(ctx context.Context, id uuid.UUID, standing AccountStanding, opts ...StandingUpdateOption) (*User, error) {
	return a.SetStandingTx(ctx, a.db, id, standing, opts...)
}

func (a *users) SetStandingTx(ctx context.Context, tx bun.IDB, id uuid.UUID, standing AccountStanding, opts ...StandingUpdateOption) (*User, error) {
	record := &User{
		ID:       id,
		Standing: standing,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(record)
		}
	}

	if standing == StandingActive {
		// unlocking also forgives past failures, raw SQL so the zero
		// values actually make it to the row
		_, err := tx.NewRaw(`
			UPDATE "users" AS "usr"
			SET
				"standing" = ?,
				"locked_at" = NULL,
				"login_attempts" = 0,
				"login_attempt_at" = NULL
			WHERE
				("usr".id = ?)
				AND "usr"."deleted_at" IS NULL;
		`, standing, id).Exec(ctx)
		if err != nil {
			return nil, err
		}

		record.LoginAttempts = 0
		record.LoginAttemptAt = nil
		record.LockedAt = nil
		return record, nil
	}

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

func (a *users) Lock(ctx context.Context, actor ActorRef, user *User, opts ...TransitionOption) (*User, error) {
	return a.standingStateMachine().Transition(ctx, actor, user, StandingLocked, opts...)
}

func (a *users) Unlock(ctx context.Context, actor ActorRef, user *User, opts ...TransitionOption) (*User, error) {
	return a.standingStateMachine().Transition(ctx, actor, user, StandingActive, opts...)
}

// StandingUpdateOption allows callers to mutate the user record before
// persisting standing changes.
type StandingUpdateOption func(*User)

// WithLockedAt sets the LockedAt timestamp during a standing transition.
func WithLockedAt(at *time.Time) StandingUpdateOption {
	return func(u *User) {
		u.LockedAt = at
	}
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleAnonymous
	}

	record.EnsureStanding()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "nickname",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}

func (a *users) standingStateMachine() StandingMachine {
	if a.standingMachine == nil {
		a.standingMachine = NewStandingMachine(a, a.standingOptions...)
	}
	return a.standingMachine
}
