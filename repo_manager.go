package accounts

import (
	"context"
	"database/sql"
	"log"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager bundles the account repositories behind one handle so
// command handlers can share transactions across them.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	PasswordResets() repository.Repository[*PasswordReset]
}

type repoManager struct {
	db             *bun.DB
	users          Users
	passwordResets repository.Repository[*PasswordReset]
}

// NewRepositoryManager wires the repositories over one bun handle; opts are
// forwarded to the users repository (standing machine, activity sink).
func NewRepositoryManager(db *bun.DB, opts ...UsersOption) RepositoryManager {
	return &repoManager{
		db:             db,
		users:          NewUsersRepository(db, opts...),
		passwordResets: NewPasswordResetsRepository(db),
	}
}

func NewPasswordResetsRepository(db *bun.DB) repository.Repository[*PasswordReset] {
	return repository.NewRepository(db, repository.ModelHandlers[*PasswordReset]{
		NewRecord: func() *PasswordReset { return &PasswordReset{} },
		GetID: func(record *PasswordReset) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PasswordReset, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string { return "email" },
	})
}

func (m *repoManager) Users() Users {
	return m.users
}

func (m *repoManager) PasswordResets() repository.Repository[*PasswordReset] {
	return m.passwordResets
}

func (m *repoManager) Validate() error {
	if m.users == nil {
		return goerrors.New("users repository is not initialized", goerrors.CategoryInternal)
	}
	if m.passwordResets == nil {
		return goerrors.New("password resets repository is not initialized", goerrors.CategoryInternal)
	}
	return nil
}

func (m *repoManager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

// RunInTx aborts before opening a transaction when the context is already done.
func (m *repoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.db.RunInTx(ctx, opts, f)
}
