package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cybercaja/cybercaja/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate resolves a PIN to an operator account. PINs are not
// unique identifiers at the schema level, so the check walks every
// active account and compares against each stored hash. A disabled
// account never matches.
func (s *Service) Authenticate(ctx context.Context, pin string) (*User, error) {
	if pin == "" {
		return nil, shared.ErrInvalidCredentials
	}
	users, err := s.repo.ActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		u := &users[i]
		if bcrypt.CompareHashAndPassword([]byte(u.PINHash), []byte(pin)) == nil {
			return u, nil
		}
	}
	return nil, shared.ErrInvalidCredentials
}

// Lookup returns the account for an already-established session.
func (s *Service) Lookup(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
