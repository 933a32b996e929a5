package identity

// Role is the already-verified role claim supplied by the identity provider.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether the role may perform moderation actions.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Actor is the authenticated caller of an operation. The auth middleware
// builds it from verified JWT claims; services treat it as trusted input.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// IsZero reports whether no authenticated actor is present.
func (a Actor) IsZero() bool {
	return a.ID == ""
}
