package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trucoapp/tournament-manager/models"
	"github.com/trucoapp/tournament-manager/services"
)

type stubAuthService struct {
	users map[int]*models.User

	updatedID   int
	updatedRole models.UserRole
}

func (s *stubAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	return nil, services.ErrValidationFailed
}

func (s *stubAuthService) Login(ctx context.Context, input services.LoginInput) (*models.User, error) {
	return nil, services.ErrAuthInvalidCredentials
}

func (s *stubAuthService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return user, nil
}

func (s *stubAuthService) UpdateRole(ctx context.Context, userID int, role models.UserRole) error {
	if role != models.RoleAdmin && role != models.RolePlayer {
		return services.ErrInvalidStatus
	}
	user, ok := s.users[userID]
	if !ok {
		return services.ErrUserNotFound
	}
	user.Role = role
	s.updatedID = userID
	s.updatedRole = role
	return nil
}

func newRoleRouter(stub *stubAuthService) *chi.Mux {
	h := NewAuthHandler(stub, "test-secret")
	router := chi.NewRouter()
	router.Put("/api/admin/users/{id}/role", h.UpdateUserRole)
	return router
}

func TestUpdateUserRole(t *testing.T) {
	t.Run("promotes a player to admin", func(t *testing.T) {
		stub := &stubAuthService{users: map[int]*models.User{
			2: {ID: 2, FullName: "Pedro", Role: models.RolePlayer},
		}}
		router := newRoleRouter(stub)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(
			http.MethodPut, "/api/admin/users/2/role", strings.NewReader(`{"role":"admin"}`),
		))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, stub.updatedID)
		assert.Equal(t, models.RoleAdmin, stub.updatedRole)
		assert.Contains(t, rec.Body.String(), `"role": "admin"`)
	})

	t.Run("rejects an unknown role value", func(t *testing.T) {
		stub := &stubAuthService{users: map[int]*models.User{
			2: {ID: 2, Role: models.RolePlayer},
		}}
		router := newRoleRouter(stub)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(
			http.MethodPut, "/api/admin/users/2/role", strings.NewReader(`{"role":"owner"}`),
		))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, stub.updatedID)
	})

	t.Run("maps a missing user to 404", func(t *testing.T) {
		router := newRoleRouter(&stubAuthService{users: map[int]*models.User{}})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(
			http.MethodPut, "/api/admin/users/99/role", strings.NewReader(`{"role":"admin"}`),
		))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		router := newRoleRouter(&stubAuthService{users: map[int]*models.User{}})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(
			http.MethodPut, "/api/admin/users/abc/role", strings.NewReader(`{"role":"admin"}`),
		))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
