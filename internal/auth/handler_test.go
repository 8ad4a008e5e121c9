package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cybercaja/cybercaja/internal/auth"
	"github.com/cybercaja/cybercaja/internal/shared"
)

type stubRepo struct {
	users []auth.User
}

func (s *stubRepo) ActiveUsers(ctx context.Context) ([]auth.User, error) {
	return s.users, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	handler := auth.NewHandler(nil, auth.NewService(repo), sessionManager)
	return handler, sessionManager
}

func withSession(t *testing.T, sm *shared.SessionManager, req *http.Request) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := sm.Load(req.Context(), req)
	require.NoError(t, err)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func chiMux(h *auth.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	return r
}

func pinUser(t *testing.T, id int64, name, pin string, role shared.Role) auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	return auth.User{ID: id, Name: name, Role: role, PINHash: string(hash), IsActive: true}
}

func TestLoginEstablishesSession(t *testing.T) {
	repo := &stubRepo{users: []auth.User{pinUser(t, 5, "Rosa", "4821", shared.RoleAdmin)}}
	handler, sm := newAuthHandler(t, repo)

	mux := chiMux(handler)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"pin":"4821"}`))
	req.Header.Set("Content-Type", "application/json")
	req, sess := withSession(t, sm, req)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"name":"Rosa"`)
	require.Equal(t, int64(5), sess.UserID())
	require.Equal(t, shared.RoleAdmin, sess.Role())
}

func TestLoginRejectsWrongPIN(t *testing.T) {
	repo := &stubRepo{users: []auth.User{pinUser(t, 5, "Rosa", "4821", shared.RoleAdmin)}}
	handler, sm := newAuthHandler(t, repo)

	mux := chiMux(handler)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"pin":"1111"}`))
	req.Header.Set("Content-Type", "application/json")
	req, sess := withSession(t, sm, req)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Zero(t, sess.UserID())
}

func TestLoginValidatesPayload(t *testing.T) {
	handler, sm := newAuthHandler(t, &stubRepo{})

	mux := chiMux(handler)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"pin":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	req, _ = withSession(t, sm, req)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMeRequiresAuth(t *testing.T) {
	handler, _ := newAuthHandler(t, &stubRepo{})

	mux := chiMux(handler)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
