package accounts

// UserIdentity is a point-in-time snapshot of a User satisfying Identity.
// Token generation holds the snapshot, not the live record, so later repo
// mutations cannot leak into claims.
type UserIdentity struct {
	id       string
	nickname string
	email    string
	role     string
	standing AccountStanding
}

var _ Identity = UserIdentity{}

// NewIdentityFromUser returns an Identity snapshot for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{
		id:       user.ID.String(),
		nickname: user.Nickname,
		email:    user.Email,
		role:     string(user.Role),
		standing: user.Standing,
	}
}

func (u UserIdentity) ID() string       { return u.id }
func (u UserIdentity) Nickname() string { return u.nickname }
func (u UserIdentity) Email() string    { return u.email }
func (u UserIdentity) Role() string     { return u.role }

// Standing treats an unset standing as active, matching User.EnsureStanding.
func (u UserIdentity) Standing() AccountStanding {
	if u.standing == "" {
		return StandingActive
	}
	return u.standing
}
