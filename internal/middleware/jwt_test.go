package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "swampbook-api", claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)

	// A token signed with a different secret fails the HMAC check.
	original := jwtSecret
	jwtSecret = []byte("some-other-secret")
	foreign, err := GenerateToken(uuid.New())
	require.NoError(t, err)
	jwtSecret = original

	_, err = ValidateToken(foreign)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateToken(userID)
	require.NoError(t, err)

	var gotUserID uuid.UUID
	var gotOK bool
	handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		path       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "/friends", "Bearer " + token, http.StatusOK},
		{"missing header", "/friends", "", http.StatusUnauthorized},
		{"wrong scheme", "/friends", "Basic abc123", http.StatusUnauthorized},
		{"garbage token", "/friends", "Bearer junk", http.StatusUnauthorized},
		{"unprotected route", "/users/login", "", http.StatusOK},
		{"unprotected prefix", "/uploads/avatars/x.png", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
			if tt.name == "valid token" {
				// The caller's ID rode through the request context.
				assert.True(t, gotOK)
				assert.Equal(t, userID, gotUserID)
			}
		})
	}
}
