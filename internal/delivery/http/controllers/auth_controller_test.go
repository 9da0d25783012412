package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

func TestAuthController_Login(t *testing.T) {
	tests := []struct {
		name         string
		body         map[string]any
		loginErr     error
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "success",
			body:       map[string]any{"email": " Alice@Example.com", "password": "s3cret-pass"},
			wantStatus: http.StatusOK,
		},
		{
			name:         "missing password",
			body:         map[string]any{"email": "alice@example.com"},
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "wrong credentials",
			body:         map[string]any{"email": "alice@example.com", "password": "wrong-pass"},
			loginErr:     domain.ErrUnauthorized,
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUserService{
				loginToken: "signed.jwt.token",
				loginUser:  &domain.User{ID: 5, Email: "alice@example.com", Name: "Alice"},
				loginErr:   tt.loginErr,
			}
			ctrl := NewAuthController(testLogger, fake)
			rr := httptest.NewRecorder()

			ctrl.Login(rr, newRequest(t, http.MethodPost, "/auth/login", tt.body, 0, nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			var got LoginResponse
			apiErr := decodeEnvelope(t, rr, &got)
			if tt.wantBodyCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantBodyCode, apiErr.Code)
				return
			}
			assert.Equal(t, "signed.jwt.token", got.Token)
			assert.Equal(t, "Bearer", got.TokenType)
			require.NotNil(t, got.User)
			assert.Equal(t, int64(5), got.User.ID)
			assert.Equal(t, "alice@example.com", fake.loginEmail)
		})
	}
}
