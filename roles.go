package accounts

// UserRole is the user's role
type UserRole = string

const (
	// RoleAnonymous is a registered account that has not verified its email
	RoleAnonymous UserRole = "anonymous"
	// RoleAuthenticated is a verified account
	RoleAuthenticated UserRole = "authenticated"
	// RoleManager can manage other accounts (i.e. unlock, list)
	RoleManager UserRole = "manager"
	// RoleAdmin has full control over accounts
	RoleAdmin UserRole = "admin"
)

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleAnonymous, RoleAuthenticated, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleIsAtLeast checks if the role meets the minimum required level
func RoleIsAtLeast(r, minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleAnonymous:     0,
		RoleAuthenticated: 1,
		RoleManager:       2,
		RoleAdmin:         3,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleAnonymous,
		RoleAuthenticated,
		RoleManager,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}
