package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	created      *domain.EventRegistration
	createEvent  *domain.Event
	createErr    error
	updatedID    int64
	updated      *domain.Event
	updateErr    error
	getEvent     *domain.Event
	getErr       error
	deletedID    int64
	deleteErr    error
	organizerID  int64
	organizerErr error
	participants []*domain.User
	applications []*domain.Application
	listEvents   []*domain.Event
	listErr      error
	listParams   domain.PaginationParams
	listSpecs    []domain.Specialization
	lastFrame    domain.TimeFrame
	joined       [2]int64
	joinErr      error
	left         [2]int64
	leaveErr     error
	member       bool
	memberErr    error
}

func (f *fakeEventService) CreateEvent(ctx context.Context, reg *domain.EventRegistration) (*domain.Event, error) {
	f.created = reg
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createEvent, nil
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, eventID int64, event *domain.Event) error {
	f.updatedID = eventID
	f.updated = event
	return f.updateErr
}

func (f *fakeEventService) GetEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getEvent, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, eventID int64) error {
	f.deletedID = eventID
	return f.deleteErr
}

func (f *fakeEventService) GetEventOrganizer(ctx context.Context, eventID int64) (int64, error) {
	return f.organizerID, f.organizerErr
}

func (f *fakeEventService) ListParticipants(ctx context.Context, eventID int64) ([]*domain.User, error) {
	return f.participants, f.listErr
}

func (f *fakeEventService) ListApplications(ctx context.Context, eventID int64) ([]*domain.Application, error) {
	return f.applications, f.listErr
}

func (f *fakeEventService) ListEvents(ctx context.Context, params domain.PaginationParams, specializations []domain.Specialization) ([]*domain.Event, error) {
	f.listParams = params
	f.listSpecs = specializations
	return f.listEvents, f.listErr
}

func (f *fakeEventService) ListOrganizerEvents(ctx context.Context, organizerID int64, frame domain.TimeFrame) ([]*domain.Event, error) {
	f.lastFrame = frame
	return f.listEvents, f.listErr
}

func (f *fakeEventService) ListParticipantEvents(ctx context.Context, userID int64, frame domain.TimeFrame) ([]*domain.Event, error) {
	f.lastFrame = frame
	return f.listEvents, f.listErr
}

func (f *fakeEventService) ListApplicantEvents(ctx context.Context, creatorID int64, frame domain.TimeFrame) ([]*domain.Event, error) {
	f.lastFrame = frame
	return f.listEvents, f.listErr
}

func (f *fakeEventService) JoinEvent(ctx context.Context, eventID, userID int64) error {
	f.joined = [2]int64{eventID, userID}
	return f.joinErr
}

func (f *fakeEventService) LeaveEvent(ctx context.Context, eventID, userID int64) error {
	f.left = [2]int64{eventID, userID}
	return f.leaveErr
}

func (f *fakeEventService) IsParticipant(ctx context.Context, eventID, userID int64) (bool, error) {
	return f.member, f.memberErr
}

// fakeUserService implements domain.UserService for handler tests.
type fakeUserService struct {
	createdName  string
	createdEmail string
	createUser   *domain.User
	createErr    error
	getUser      *domain.User
	getErr       error
	loginEmail   string
	loginToken   string
	loginUser    *domain.User
	loginErr     error
}

func (f *fakeUserService) CreateUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	f.createdName, f.createdEmail = name, email
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createUser, nil
}

func (f *fakeUserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getUser, nil
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	f.loginEmail = email
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return f.loginToken, f.loginUser, nil
}

// fakeLikeService implements domain.LikeService for handler tests.
type fakeLikeService struct {
	added     [2]int64
	addErr    error
	removed   [2]int64
	removeErr error
	liked     bool
	likedErr  error
	events    []*domain.Event
	lastFrame domain.TimeFrame
}

func (f *fakeLikeService) AddLike(ctx context.Context, userID, eventID int64) error {
	f.added = [2]int64{userID, eventID}
	return f.addErr
}

func (f *fakeLikeService) RemoveLike(ctx context.Context, userID, eventID int64) error {
	f.removed = [2]int64{userID, eventID}
	return f.removeErr
}

func (f *fakeLikeService) IsLiked(ctx context.Context, userID, eventID int64) (bool, error) {
	return f.liked, f.likedErr
}

func (f *fakeLikeService) ListLikedEvents(ctx context.Context, userID int64, frame domain.TimeFrame) ([]*domain.Event, error) {
	f.lastFrame = frame
	return f.events, nil
}

// newRequest builds a request with path values and an optional authenticated caller.
func newRequest(t *testing.T, method, target string, body any, callerID int64, pathValues map[string]string) *http.Request {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, "http://test"+target, rdr)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if callerID != 0 {
		req = req.WithContext(middleware.SetUserID(req.Context(), callerID))
	}
	return req
}

// decodeEnvelope decodes the response envelope and unmarshals data into dest when non-nil.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) *helpers.APIError {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	if dest != nil && envelope.Error == nil {
		require.NoError(t, json.Unmarshal(envelope.Data, dest))
	}
	return envelope.Error
}
