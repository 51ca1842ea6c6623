package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthenticator_Middleware(t *testing.T) {
	auth := NewAuthenticator(testSecret)

	var seen models.Actor
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantActor  models.Actor
	}{
		{
			name: "valid token",
			header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"user_id": "m1", "name": "An", "role": "lead", "exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantStatus: http.StatusNoContent,
			wantActor:  models.Actor{MemberID: "m1", Name: "An", Role: models.RoleLead},
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, "other", jwt.MapClaims{"user_id": "m1", "role": "user"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired",
			header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"user_id": "m1", "role": "user", "exp": time.Now().Add(-time.Hour).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown role",
			header:     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": "m1", "role": "owner"}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = models.Actor{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantActor, seen)
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleLead, models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		actor      *models.Actor
		wantStatus int
	}{
		{"lead allowed", &models.Actor{MemberID: "m1", Role: models.RoleLead}, http.StatusOK},
		{"user forbidden", &models.Actor{MemberID: "m2", Role: models.RoleUser}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.actor != nil {
				req = req.WithContext(WithActor(req.Context(), *tt.actor))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
