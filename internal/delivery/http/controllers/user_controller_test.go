package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

func TestUserController_CreateUser(t *testing.T) {
	tests := []struct {
		name         string
		body         map[string]any
		createErr    error
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "success",
			body:       map[string]any{"name": " Alice ", "email": "Alice@Example.com", "password": "s3cret-pass"},
			wantStatus: http.StatusCreated,
		},
		{
			name:         "invalid email",
			body:         map[string]any{"name": "Alice", "email": "alice", "password": "s3cret-pass"},
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "short password",
			body:         map[string]any{"name": "Alice", "email": "alice@example.com", "password": "short"},
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "unknown field",
			body:         map[string]any{"name": "Alice", "email": "alice@example.com", "password": "s3cret-pass", "role": "admin"},
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "email taken",
			body:         map[string]any{"name": "Alice", "email": "alice@example.com", "password": "s3cret-pass"},
			createErr:    fmt.Errorf("create user: %w", fmt.Errorf("%w: %w", domain.ErrStorage, domain.ErrConflict)),
			wantStatus:   http.StatusConflict,
			wantBodyCode: helpers.ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUserService{
				createUser: &domain.User{ID: 5, Name: "Alice", Email: "alice@example.com", PasswordHash: "hash", CreatedAt: time.Now()},
				createErr:  tt.createErr,
			}
			ctrl := NewUserController(testLogger, fake, &fakeEventService{}, &fakeLikeService{})
			rr := httptest.NewRecorder()

			ctrl.CreateUser(rr, newRequest(t, http.MethodPost, "/users", tt.body, 0, nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBodyCode != "" {
				assert.NotContains(t, rr.Body.String(), "hash")
				apiErr := decodeEnvelope(t, rr, nil)
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantBodyCode, apiErr.Code)
				return
			}
			assert.NotContains(t, rr.Body.String(), "password")
			var got domain.User
			require.Nil(t, decodeEnvelope(t, rr, &got))
			assert.Equal(t, int64(5), got.ID)
			assert.Equal(t, "Alice", fake.createdName)
			assert.Equal(t, "alice@example.com", fake.createdEmail)
		})
	}
}

func TestUserController_GetUser(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		ctrl := NewUserController(testLogger, &fakeUserService{getUser: &domain.User{ID: 5, Name: "Alice"}}, &fakeEventService{}, &fakeLikeService{})
		rr := httptest.NewRecorder()

		ctrl.GetUser(rr, newRequest(t, http.MethodGet, "/users/5", nil, 0, map[string]string{"userID": "5"}))

		require.Equal(t, http.StatusOK, rr.Code)
		var got domain.User
		require.Nil(t, decodeEnvelope(t, rr, &got))
		assert.Equal(t, "Alice", got.Name)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := NewUserController(testLogger, &fakeUserService{getErr: domain.ErrNotFound}, &fakeEventService{}, &fakeLikeService{})
		rr := httptest.NewRecorder()

		ctrl.GetUser(rr, newRequest(t, http.MethodGet, "/users/5", nil, 0, map[string]string{"userID": "5"}))

		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUserController_EventLists(t *testing.T) {
	events := []*domain.Event{{ID: 1, Name: "a", Specialization: domain.SpecializationSport}}
	paths := map[string]string{"userID": "5"}

	t.Run("participant events", func(t *testing.T) {
		eventSvc := &fakeEventService{listEvents: events}
		ctrl := NewUserController(testLogger, &fakeUserService{}, eventSvc, &fakeLikeService{})
		rr := httptest.NewRecorder()

		ctrl.ListUserEvents(rr, newRequest(t, http.MethodGet, "/users/5/events?frame=past", nil, 0, paths))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, domain.Past, eventSvc.lastFrame)
		var got []*domain.Event
		require.Nil(t, decodeEnvelope(t, rr, &got))
		assert.Len(t, got, 1)
	})

	t.Run("applicant events default to upcoming", func(t *testing.T) {
		eventSvc := &fakeEventService{listEvents: events, lastFrame: domain.Past}
		ctrl := NewUserController(testLogger, &fakeUserService{}, eventSvc, &fakeLikeService{})
		rr := httptest.NewRecorder()

		ctrl.ListUserApplications(rr, newRequest(t, http.MethodGet, "/users/5/applications", nil, 0, paths))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, domain.Upcoming, eventSvc.lastFrame)
	})

	t.Run("liked events", func(t *testing.T) {
		likeSvc := &fakeLikeService{}
		ctrl := NewUserController(testLogger, &fakeUserService{}, &fakeEventService{}, likeSvc)
		rr := httptest.NewRecorder()

		ctrl.ListLikedEvents(rr, newRequest(t, http.MethodGet, "/users/5/likes?frame=past", nil, 0, paths))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, domain.Past, likeSvc.lastFrame)
		var got []*domain.Event
		require.Nil(t, decodeEnvelope(t, rr, &got))
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestUserController_Likes(t *testing.T) {
	paths := map[string]string{"userID": "5", "eventID": "11"}

	tests := []struct {
		name       string
		callerID   int64
		addErr     error
		wantStatus int
		wantAdded  [2]int64
	}{
		{name: "like as self", callerID: 5, wantStatus: http.StatusCreated, wantAdded: [2]int64{5, 11}},
		{name: "like for someone else", callerID: 6, wantStatus: http.StatusForbidden},
		{name: "unauthenticated", wantStatus: http.StatusUnauthorized},
		{name: "event missing", callerID: 5, addErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantAdded: [2]int64{5, 11}},
		{name: "already liked", callerID: 5, addErr: fmt.Errorf("%w: %w", domain.ErrStorage, domain.ErrConflict), wantStatus: http.StatusConflict, wantAdded: [2]int64{5, 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			likeSvc := &fakeLikeService{addErr: tt.addErr}
			ctrl := NewUserController(testLogger, &fakeUserService{}, &fakeEventService{}, likeSvc)
			rr := httptest.NewRecorder()

			ctrl.AddLike(rr, newRequest(t, http.MethodPost, "/users/5/likes/11", nil, tt.callerID, paths))

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantAdded, likeSvc.added)
		})
	}

	t.Run("remove", func(t *testing.T) {
		likeSvc := &fakeLikeService{}
		ctrl := NewUserController(testLogger, &fakeUserService{}, &fakeEventService{}, likeSvc)
		rr := httptest.NewRecorder()

		ctrl.RemoveLike(rr, newRequest(t, http.MethodDelete, "/users/5/likes/11", nil, 5, paths))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, [2]int64{5, 11}, likeSvc.removed)
	})

	t.Run("is liked", func(t *testing.T) {
		ctrl := NewUserController(testLogger, &fakeUserService{}, &fakeEventService{}, &fakeLikeService{liked: true})
		rr := httptest.NewRecorder()

		ctrl.IsLiked(rr, newRequest(t, http.MethodGet, "/users/5/likes/11", nil, 0, paths))

		require.Equal(t, http.StatusOK, rr.Code)
		var got LikeResponse
		require.Nil(t, decodeEnvelope(t, rr, &got))
		assert.True(t, got.Liked)
	})
}
