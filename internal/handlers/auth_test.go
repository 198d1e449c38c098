package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-manager/internal/dto"
)

func TestRegister(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Alice",
		"email":    "Alice@Example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[map[string]interface{}](t, w)
	assert.NotEmpty(t, resp["id"])
	assert.Equal(t, "Alice", resp["name"])
	assert.Equal(t, "alice@example.com", resp["email"])
	assert.NotContains(t, resp, "password")
	assert.NotContains(t, resp, "passwordHash")
}

func TestRegister_Rejections(t *testing.T) {
	env := setupTestEnv(t)
	env.registerAndLogin(t, "Alice", "alice@example.com")

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"duplicate email", map[string]string{"name": "A", "email": "alice@example.com", "password": "password123"}, http.StatusConflict, "ALREADY_EXISTS"},
		{"short password", map[string]string{"name": "B", "email": "b@example.com", "password": "short"}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"invalid email", map[string]string{"name": "C", "email": "not-an-email", "password": "password123"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing name", map[string]string{"email": "d@example.com", "password": "password123"}, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.request(http.MethodPost, "/api/auth/register", tt.body, "")
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			resp := decode[map[string]interface{}](t, w)
			assert.Equal(t, tt.code, resp["code"])
		})
	}
}

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)
	userID, token := env.registerAndLogin(t, "Alice", "alice@example.com")

	assert.NotEmpty(t, userID)
	assert.NotEmpty(t, token)

	w := env.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decode[map[string]interface{}](t, w)
	assert.Equal(t, "INVALID_CREDENTIALS", resp["code"])

	w = env.request(http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCurrentUser(t *testing.T) {
	env := setupTestEnv(t)
	userID, token := env.registerAndLogin(t, "Alice", "alice@example.com")

	w := env.request(http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	user := decode[dto.UserDTO](t, w)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "Alice", user.Name)

	w = env.request(http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
