package auth

import (
	"time"

	"github.com/cybercaja/cybercaja/internal/shared"
)

// User represents an operator account. Operators identify themselves
// with a numeric PIN rather than an email/password pair; the PIN is
// stored as a bcrypt hash and never logged.
type User struct {
	ID        int64
	Name      string
	Role      shared.Role
	PINHash   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
