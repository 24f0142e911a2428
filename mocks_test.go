package accounts_test

import (
	"context"
	"database/sql"

	accounts "github.com/goliatone/go-accounts"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements accounts.RepositoryManager. The embedded
// interface covers methods the tests never exercise.
type MockRepositoryManager struct {
	mock.Mock
	accounts.RepositoryManager
}

func (m *MockRepositoryManager) Users() accounts.Users {
	args := m.Called()
	return args.Get(0).(accounts.Users)
}

func (m *MockRepositoryManager) PasswordResets() repository.Repository[*accounts.PasswordReset] {
	args := m.Called()
	return args.Get(0).(repository.Repository[*accounts.PasswordReset])
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

// RunInTx executes the closure with a zero bun.Tx and propagates its error,
// so error paths inside transactions surface the way the real manager does.
// Stub an error return to simulate a transaction that fails before the
// closure runs.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	var tx bun.Tx
	return f(ctx, tx)
}

// MockUsers implements accounts.Users for the methods the tests stub.
type MockUsers struct {
	mock.Mock
	accounts.Users
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, id, criteria)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, identifier, criteria)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, identifier, criteria)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*accounts.User, error) {
	args := m.Called(ctx, tx, email)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByNicknameTx(ctx context.Context, tx bun.IDB, nickname string) (*accounts.User, error) {
	args := m.Called(ctx, tx, nickname)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, record *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, tx, record)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.UpdateCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) RawTx(ctx context.Context, tx bun.IDB, query string, queryArgs ...any) ([]*accounts.User, error) {
	args := m.Called(ctx, tx, query, queryArgs)
	users, _ := args.Get(0).([]*accounts.User)
	return users, args.Error(1)
}

func (m *MockUsers) CountUsersTx(ctx context.Context, tx bun.IDB) (int, error) {
	args := m.Called(ctx, tx)
	return args.Int(0), args.Error(1)
}

func (m *MockUsers) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) TrackAttemptedLogin(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) SetStanding(ctx context.Context, id uuid.UUID, standing accounts.AccountStanding, opts ...accounts.StandingUpdateOption) (*accounts.User, error) {
	args := m.Called(ctx, id, standing, opts)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) Lock(ctx context.Context, actor accounts.ActorRef, user *accounts.User, opts ...accounts.TransitionOption) (*accounts.User, error) {
	args := m.Called(ctx, actor, user, opts)
	locked, _ := args.Get(0).(*accounts.User)
	return locked, args.Error(1)
}

func (m *MockUsers) Unlock(ctx context.Context, actor accounts.ActorRef, user *accounts.User, opts ...accounts.TransitionOption) (*accounts.User, error) {
	args := m.Called(ctx, actor, user, opts)
	unlocked, _ := args.Get(0).(*accounts.User)
	return unlocked, args.Error(1)
}

func (m *MockUsers) MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

// MockPasswordResets implements repository.Repository[*accounts.PasswordReset]
// for the methods the tests stub.
type MockPasswordResets struct {
	mock.Mock
	repository.Repository[*accounts.PasswordReset]
}

func (m *MockPasswordResets) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*accounts.PasswordReset, error) {
	args := m.Called(ctx, id, criteria)
	reset, _ := args.Get(0).(*accounts.PasswordReset)
	return reset, args.Error(1)
}

func (m *MockPasswordResets) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.PasswordReset, criteria ...repository.InsertCriteria) (*accounts.PasswordReset, error) {
	args := m.Called(ctx, tx, record, criteria)
	reset, _ := args.Get(0).(*accounts.PasswordReset)
	return reset, args.Error(1)
}

func (m *MockPasswordResets) UpdateTx(ctx context.Context, tx bun.IDB, record *accounts.PasswordReset, criteria ...repository.UpdateCriteria) (*accounts.PasswordReset, error) {
	args := m.Called(ctx, tx, record, criteria)
	reset, _ := args.Get(0).(*accounts.PasswordReset)
	return reset, args.Error(1)
}

// MockActivitySink implements accounts.ActivitySink.
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event accounts.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// capturingSink collects events without expectations, for flow tests.
type capturingSink struct {
	events []accounts.ActivityEvent
}

func (c *capturingSink) Record(_ context.Context, event accounts.ActivityEvent) error {
	c.events = append(c.events, event)
	return nil
}

// MockUserTracker implements accounts.UserTracker.
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, identifier, criteria)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) Lock(ctx context.Context, actor accounts.ActorRef, user *accounts.User, opts ...accounts.TransitionOption) (*accounts.User, error) {
	args := m.Called(ctx, actor, user, opts)
	locked, _ := args.Get(0).(*accounts.User)
	return locked, args.Error(1)
}

// MockMailer implements accounts.Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationEmail(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordResetEmail(ctx context.Context, reset *accounts.PasswordReset) error {
	args := m.Called(ctx, reset)
	return args.Error(0)
}

func (m *MockMailer) SendAccountLockedEmail(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockMailer) SendAccountUnlockedEmail(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// TestIdentity is a simple Identity implementation for token tests.
type TestIdentity struct {
	IDVal       string
	NicknameVal string
	EmailVal    string
	RoleVal     string
}

func (t TestIdentity) ID() string       { return t.IDVal }
func (t TestIdentity) Nickname() string { return t.NicknameVal }
func (t TestIdentity) Email() string    { return t.EmailVal }
func (t TestIdentity) Role() string     { return t.RoleVal }

// mockConfig satisfies accounts.Config.
type mockConfig struct {
	signingKey      string
	tokenExpiration int
	issuer          string
	audience        []string
}

func (c mockConfig) GetSigningKey() string    { return c.signingKey }
func (c mockConfig) GetSigningMethod() string { return "HS256" }
func (c mockConfig) GetTokenExpiration() int  { return c.tokenExpiration }
func (c mockConfig) GetIssuer() string        { return c.issuer }
func (c mockConfig) GetAudience() []string    { return c.audience }

var (
	_ accounts.Users       = (*MockUsers)(nil)
	_ accounts.UserTracker = (*MockUserTracker)(nil)
	_ accounts.Mailer      = (*MockMailer)(nil)
	_ accounts.Identity    = TestIdentity{}
	_ accounts.Config      = mockConfig{}
)
