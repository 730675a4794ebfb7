package models

// Role is the access level of a user account.
type Role string

const (
	RoleDirector Role = "director"
	RoleManager  Role = "manager"
	RoleUser     Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDirector, RoleManager, RoleUser:
		return true
	default:
		return false
	}
}

// Label returns a display name for the role. Unknown roles read as "employee".
func (r Role) Label() string {
	switch r {
	case RoleDirector:
		return "director"
	case RoleManager:
		return "manager"
	default:
		return "employee"
	}
}

func (r Role) IsDirector() bool { return r == RoleDirector }

func (r Role) IsManager() bool { return r == RoleManager }

func (r Role) IsManagerOrDirector() bool {
	return r == RoleManager || r == RoleDirector
}

// HasManagementPermission reports whether the role may create, edit and
// delete projects and tasks.
func (r Role) HasManagementPermission() bool {
	return r.IsManagerOrDirector()
}

// Credentials is the login body. Identifier accepts a username or an email.
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Registration is the account creation body. RegisterKey selects the role on
// the remote side.
type Registration struct {
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
	Profile         *string `json:"profile,omitempty"`
	RegisterKey     string  `json:"register_key"`
}

// ProfileUpdate is the body of a profile change.
type ProfileUpdate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// PasswordChange is the body of a password rotation.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ActionResult is the {success, message} envelope returned by profile and
// password endpoints.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}
