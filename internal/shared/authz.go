package shared

// Role identifies what a logged-in operator may do. The set is fixed:
// a handful of people run the center.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleWorker Role = "WORKER"
	RoleViewer Role = "VIEWER"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleWorker, RoleViewer:
		return true
	}
	return false
}

// IsAuthorized reports whether role satisfies any of the required
// roles. An empty requirement list means the route only needs a
// logged-in user.
func IsAuthorized(role Role, required ...Role) bool {
	if !role.Valid() {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, want := range required {
		if role == want {
			return true
		}
	}
	return false
}
