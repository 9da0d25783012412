package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// EventRequest is the request body for POST /events and PUT /events/{eventID}.
// A PUT replaces the participant and image collections with the ones given.
type EventRequest struct {
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	Rating         float64               `json:"rating"`
	GeoData        string                `json:"geo_data"`
	Specialization domain.Specialization `json:"specialization" swaggertype:"string" example:"IT"`
	Date           time.Time             `json:"date"`
	ParticipantIDs []int64               `json:"participant_ids"`
	// Images are base64-encoded.
	Images []string `json:"images"`
}

// Validate implements Validator.
func (e EventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(e.Name) == "" {
		errs = append(errs, "name is required")
	}
	if !e.Specialization.Valid() {
		errs = append(errs, "specialization is required")
	}
	if e.Date.IsZero() {
		errs = append(errs, "date is required")
	}
	if e.Rating < 0 || e.Rating > 5 {
		errs = append(errs, "rating must be between 0 and 5")
	}
	for i, img := range e.Images {
		if img == "" {
			errs = append(errs, fmt.Sprintf("images[%d] is empty", i))
		}
	}
	return errs
}

// EventSuccessResponse is the success response envelope for a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEventsResponse is the data payload for GET /events (200).
type ListEventsResponse struct {
	Items      []*domain.Event        `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListEventsSuccessResponse is the success response envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  ListEventsResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// EventListSuccessResponse is the envelope for unpaginated event lists.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// OrganizerResponse is the data payload for GET /events/{eventID}/organizer (200).
type OrganizerResponse struct {
	OrganizerID int64 `json:"organizer_id"`
}

// OrganizerSuccessResponse is the success response envelope for GET /events/{eventID}/organizer (200).
type OrganizerSuccessResponse struct {
	Data  OrganizerResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ParticipantsSuccessResponse is the success response envelope for GET /events/{eventID}/participants (200).
type ParticipantsSuccessResponse struct {
	Data  []*domain.User    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ApplicationsSuccessResponse is the success response envelope for GET /events/{eventID}/applications (200).
type ApplicationsSuccessResponse struct {
	Data  []*domain.Application `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// MembershipResponse is the data payload for GET /events/{eventID}/participants/{userID} (200).
type MembershipResponse struct {
	Participant bool `json:"participant"`
}

// MembershipSuccessResponse is the success response envelope for GET /events/{eventID}/participants/{userID} (200).
type MembershipSuccessResponse struct {
	Data  MembershipResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// StatusResponse is the data payload for mutations that return no entity.
type StatusResponse struct {
	Status string `json:"status"`
}

// StatusSuccessResponse is the success response envelope carrying a StatusResponse.
type StatusSuccessResponse struct {
	Data  StatusResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Creates the event with its participants and images in one unit. The authenticated user becomes the organizer.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body EventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), &domain.EventRegistration{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		OrganizerID:    userID,
		Rating:         req.Rating,
		GeoData:        req.GeoData,
		Specialization: req.Specialization,
		Date:           req.Date,
		ParticipantIDs: req.ParticipantIDs,
		Images:         req.Images,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List events
// @Description Returns one page of events ordered by id. Items carry scalar fields only; fetch an event by id for participants, images and likes.
// @Tags events
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Param specialization query string false "Comma-separated specialization filter, e.g. IT,ART"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	specs, ok := helpers.ParseSpecializations(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	events, err := c.Service.ListEvents(r.Context(), params, specs)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, len(events))
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{Items: events, Pagination: meta})
}

// GetEvent godoc
// @Summary Get an event by ID
// @Description Returns the full aggregate: scalar fields, participant ids, base64 images in order, and likes.
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error or consistency_fault"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Replace an event
// @Description Overwrites scalar fields and replaces participants and images. Only the organizer can update.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Param event body EventRequest true "New event state"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the stored event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	organizerID, ok := c.requireOrganizer(w, r, eventID)
	if !ok {
		return
	}
	event := &domain.Event{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		OrganizerID:    organizerID,
		Rating:         req.Rating,
		GeoData:        req.GeoData,
		Specialization: req.Specialization,
		Date:           req.Date,
		ParticipantIDs: req.ParticipantIDs,
		Images:         req.Images,
	}
	if err := c.Service.UpdateEvent(r.Context(), eventID, event); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if event.ParticipantIDs == nil {
		event.ParticipantIDs = []int64{}
	}
	if event.Images == nil {
		event.Images = []string{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Deletes the event with its participants, images, likes and applications. Only the organizer can delete.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Success 200 {object} controllers.StatusSuccessResponse "data.status is deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	if _, ok := c.requireOrganizer(w, r, eventID); !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// GetEventOrganizer godoc
// @Summary Get the organizer of an event
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} controllers.OrganizerSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/organizer [get]
func (c *EventController) GetEventOrganizer(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	organizerID, err := c.Service.GetEventOrganizer(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, OrganizerResponse{OrganizerID: organizerID})
}

// ListParticipants godoc
// @Summary List participants of an event
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} controllers.ParticipantsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: consistency_fault"
// @Router /events/{eventID}/participants [get]
func (c *EventController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	users, err := c.Service.ListParticipants(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if users == nil {
		users = []*domain.User{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, users)
}

// ListApplications godoc
// @Summary List applications of an event
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} controllers.ApplicationsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/applications [get]
func (c *EventController) ListApplications(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	apps, err := c.Service.ListApplications(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if apps == nil {
		apps = []*domain.Application{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, apps)
}

// JoinEvent godoc
// @Summary Join an event
// @Description Adds the authenticated user as a participant. Users can only join on their own behalf.
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Param userID path int true "User ID"
// @Success 201 {object} controllers.StatusSuccessResponse "data.status is joined"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already a participant)"
// @Router /events/{eventID}/participants/{userID} [post]
func (c *EventController) JoinEvent(w http.ResponseWriter, r *http.Request) {
	eventID, userID, ok := c.membershipParams(w, r)
	if !ok {
		return
	}
	if err := c.Service.JoinEvent(r.Context(), eventID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, StatusResponse{Status: "joined"})
}

// LeaveEvent godoc
// @Summary Leave an event
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Param userID path int true "User ID"
// @Success 200 {object} controllers.StatusSuccessResponse "data.status is left"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/participants/{userID} [delete]
func (c *EventController) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	eventID, userID, ok := c.membershipParams(w, r)
	if !ok {
		return
	}
	if err := c.Service.LeaveEvent(r.Context(), eventID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "left"})
}

// IsParticipant godoc
// @Summary Check event membership
// @Tags participants
// @Produce json
// @Param eventID path int true "Event ID"
// @Param userID path int true "User ID"
// @Success 200 {object} controllers.MembershipSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/participants/{userID} [get]
func (c *EventController) IsParticipant(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := helpers.PathID(w, r, "userID")
	if !ok {
		return
	}
	member, err := c.Service.IsParticipant(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MembershipResponse{Participant: member})
}

// ListOrganizerEvents godoc
// @Summary List events of an organizer
// @Tags events
// @Produce json
// @Param organizerID path int true "Organizer user ID"
// @Param frame query string false "upcoming (default) or past"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /organizers/{organizerID}/events [get]
func (c *EventController) ListOrganizerEvents(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := helpers.PathID(w, r, "organizerID")
	if !ok {
		return
	}
	frame, ok := helpers.ParseFrame(w, r)
	if !ok {
		return
	}
	events, err := c.Service.ListOrganizerEvents(r.Context(), organizerID, frame)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	writeEventList(w, events)
}

// requireOrganizer resolves the caller and checks they organize eventID.
func (c *EventController) requireOrganizer(w http.ResponseWriter, r *http.Request, eventID int64) (int64, bool) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return 0, false
	}
	organizerID, err := c.Service.GetEventOrganizer(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return 0, false
	}
	if organizerID != callerID {
		helpers.WriteServiceError(w, r, c.Logger, fmt.Errorf("%w: only the organizer can modify event %d", domain.ErrForbidden, eventID))
		return 0, false
	}
	return callerID, true
}

// membershipParams parses both path ids and checks the caller acts for themselves.
func (c *EventController) membershipParams(w http.ResponseWriter, r *http.Request) (eventID, userID int64, ok bool) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return 0, 0, false
	}
	if eventID, ok = helpers.PathID(w, r, "eventID"); !ok {
		return 0, 0, false
	}
	if userID, ok = helpers.PathID(w, r, "userID"); !ok {
		return 0, 0, false
	}
	if userID != callerID {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		return 0, 0, false
	}
	return eventID, userID, true
}

func writeEventList(w http.ResponseWriter, events []*domain.Event) {
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}
