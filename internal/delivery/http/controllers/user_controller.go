package controllers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// CreateUserRequest is the request body for POST /users
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (c CreateUserRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	email := strings.TrimSpace(strings.ToLower(c.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if c.Password == "" {
		errs = append(errs, "password is required")
	} else if len(c.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	return errs
}

// UserSuccessResponse is the success response envelope for a single user.
type UserSuccessResponse struct {
	Data  *domain.User      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// LikeResponse is the data payload for GET /users/{userID}/likes/{eventID} (200).
type LikeResponse struct {
	Liked bool `json:"liked"`
}

// LikeSuccessResponse is the success response envelope for GET /users/{userID}/likes/{eventID} (200).
type LikeSuccessResponse struct {
	Data  LikeResponse      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type UserController struct {
	Logger       *slog.Logger
	Service      domain.UserService
	EventService domain.EventService
	LikeService  domain.LikeService
}

func NewUserController(logger *slog.Logger, svc domain.UserService, eventSvc domain.EventService, likeSvc domain.LikeService) *UserController {
	return &UserController{
		Logger:       logger,
		Service:      svc,
		EventService: eventSvc,
		LikeService:  likeSvc,
	}
}

// CreateUser godoc
// @Summary Register a user
// @Description Creates a user with name, email and password. The password is stored hashed.
// @Tags users
// @Accept json
// @Produce json
// @Param body body CreateUserRequest true "User data"
// @Success 201 {object} controllers.UserSuccessResponse "data contains the created user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (email already registered)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users [post]
func (c *UserController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	user, err := c.Service.CreateUser(r.Context(), strings.TrimSpace(req.Name), email, req.Password)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, user)
}

// GetUser godoc
// @Summary Get a user by ID
// @Tags users
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} controllers.UserSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/{userID} [get]
func (c *UserController) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := helpers.PathID(w, r, "userID")
	if !ok {
		return
	}
	user, err := c.Service.GetUser(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// ListUserEvents godoc
// @Summary List events a user participates in
// @Tags users
// @Produce json
// @Param userID path int true "User ID"
// @Param frame query string false "upcoming (default) or past"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /users/{userID}/events [get]
func (c *UserController) ListUserEvents(w http.ResponseWriter, r *http.Request) {
	userID, frame, ok := userFrameParams(w, r)
	if !ok {
		return
	}
	events, err := c.EventService.ListParticipantEvents(r.Context(), userID, frame)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	writeEventList(w, events)
}

// ListUserApplications godoc
// @Summary List events a user has applications for
// @Tags users
// @Produce json
// @Param userID path int true "User ID"
// @Param frame query string false "upcoming (default) or past"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /users/{userID}/applications [get]
func (c *UserController) ListUserApplications(w http.ResponseWriter, r *http.Request) {
	userID, frame, ok := userFrameParams(w, r)
	if !ok {
		return
	}
	events, err := c.EventService.ListApplicantEvents(r.Context(), userID, frame)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	writeEventList(w, events)
}

// ListLikedEvents godoc
// @Summary List events a user liked
// @Tags likes
// @Produce json
// @Param userID path int true "User ID"
// @Param frame query string false "upcoming (default) or past"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /users/{userID}/likes [get]
func (c *UserController) ListLikedEvents(w http.ResponseWriter, r *http.Request) {
	userID, frame, ok := userFrameParams(w, r)
	if !ok {
		return
	}
	events, err := c.LikeService.ListLikedEvents(r.Context(), userID, frame)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	writeEventList(w, events)
}

// AddLike godoc
// @Summary Like an event
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param userID path int true "User ID"
// @Param eventID path int true "Event ID"
// @Success 201 {object} controllers.StatusSuccessResponse "data.status is liked"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already liked)"
// @Router /users/{userID}/likes/{eventID} [post]
func (c *UserController) AddLike(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := ownLikeParams(w, r)
	if !ok {
		return
	}
	if err := c.LikeService.AddLike(r.Context(), userID, eventID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, StatusResponse{Status: "liked"})
}

// RemoveLike godoc
// @Summary Remove a like
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param userID path int true "User ID"
// @Param eventID path int true "Event ID"
// @Success 200 {object} controllers.StatusSuccessResponse "data.status is unliked"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/{userID}/likes/{eventID} [delete]
func (c *UserController) RemoveLike(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := ownLikeParams(w, r)
	if !ok {
		return
	}
	if err := c.LikeService.RemoveLike(r.Context(), userID, eventID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "unliked"})
}

// IsLiked godoc
// @Summary Check whether a user liked an event
// @Tags likes
// @Produce json
// @Param userID path int true "User ID"
// @Param eventID path int true "Event ID"
// @Success 200 {object} controllers.LikeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /users/{userID}/likes/{eventID} [get]
func (c *UserController) IsLiked(w http.ResponseWriter, r *http.Request) {
	userID, ok := helpers.PathID(w, r, "userID")
	if !ok {
		return
	}
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	liked, err := c.LikeService.IsLiked(r.Context(), userID, eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, LikeResponse{Liked: liked})
}

func userFrameParams(w http.ResponseWriter, r *http.Request) (int64, domain.TimeFrame, bool) {
	userID, ok := helpers.PathID(w, r, "userID")
	if !ok {
		return 0, 0, false
	}
	frame, ok := helpers.ParseFrame(w, r)
	if !ok {
		return 0, 0, false
	}
	return userID, frame, true
}

// ownLikeParams parses the path ids; users can only change their own likes.
func ownLikeParams(w http.ResponseWriter, r *http.Request) (userID, eventID int64, ok bool) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return 0, 0, false
	}
	if userID, ok = helpers.PathID(w, r, "userID"); !ok {
		return 0, 0, false
	}
	if eventID, ok = helpers.PathID(w, r, "eventID"); !ok {
		return 0, 0, false
	}
	if userID != callerID {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		return 0, 0, false
	}
	return userID, eventID, true
}
