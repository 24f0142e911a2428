package accounts

import "context"

// Mailer is the outbound notification collaborator. Implementations deliver
// the actual email, the library only decides when one should go out.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, user *User) error
	SendPasswordResetEmail(ctx context.Context, reset *PasswordReset) error
	SendAccountLockedEmail(ctx context.Context, user *User) error
	SendAccountUnlockedEmail(ctx context.Context, user *User) error
}

// logMailer writes notifications to the logger instead of delivering them,
// used as the default so flows work before a real mailer is wired
type logMailer struct {
	logger Logger
}

// NewLogMailer returns a Mailer that only logs outgoing notifications
func NewLogMailer(logger Logger) Mailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &logMailer{logger: logger}
}

func (m *logMailer) SendVerificationEmail(ctx context.Context, user *User) error {
	m.logger.Info("email notification", "type", "verification", "to", user.Email, "link", "/verify-email/"+user.ID.String()+"/"+user.VerificationToken)
	return nil
}

func (m *logMailer) SendPasswordResetEmail(ctx context.Context, reset *PasswordReset) error {
	m.logger.Info("email notification", "type", "password_reset", "to", reset.Email, "link", "/password-reset/"+reset.ID.String())
	return nil
}

func (m *logMailer) SendAccountLockedEmail(ctx context.Context, user *User) error {
	m.logger.Info("email notification", "type", "account_locked", "to", user.Email)
	return nil
}

func (m *logMailer) SendAccountUnlockedEmail(ctx context.Context, user *User) error {
	m.logger.Info("email notification", "type", "account_unlocked", "to", user.Email)
	return nil
}

func normalizeMailer(m Mailer) Mailer {
	if m == nil {
		return NewLogMailer(nil)
	}
	return m
}
