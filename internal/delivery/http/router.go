package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventhub/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes.
// requireAuth wraps handlers that need an authenticated caller.
func NewRouter(
	eventController *controllers.EventController,
	userController *controllers.UserController,
	authController *controllers.AuthController,
	requireAuth func(http.HandlerFunc) http.HandlerFunc,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Events
	mux.HandleFunc("POST /events", requireAuth(eventController.CreateEvent))
	mux.HandleFunc("GET /events", eventController.ListEvents)
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("PUT /events/{eventID}", requireAuth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", requireAuth(eventController.DeleteEvent))
	mux.HandleFunc("GET /events/{eventID}/organizer", eventController.GetEventOrganizer)
	mux.HandleFunc("GET /events/{eventID}/participants", eventController.ListParticipants)
	mux.HandleFunc("GET /events/{eventID}/applications", eventController.ListApplications)
	mux.HandleFunc("POST /events/{eventID}/participants/{userID}", requireAuth(eventController.JoinEvent))
	mux.HandleFunc("DELETE /events/{eventID}/participants/{userID}", requireAuth(eventController.LeaveEvent))
	mux.HandleFunc("GET /events/{eventID}/participants/{userID}", eventController.IsParticipant)
	mux.HandleFunc("GET /organizers/{organizerID}/events", eventController.ListOrganizerEvents)

	// Users and likes
	mux.HandleFunc("POST /users", userController.CreateUser)
	mux.HandleFunc("GET /users/{userID}", userController.GetUser)
	mux.HandleFunc("GET /users/{userID}/events", userController.ListUserEvents)
	mux.HandleFunc("GET /users/{userID}/applications", userController.ListUserApplications)
	mux.HandleFunc("GET /users/{userID}/likes", userController.ListLikedEvents)
	mux.HandleFunc("POST /users/{userID}/likes/{eventID}", requireAuth(userController.AddLike))
	mux.HandleFunc("DELETE /users/{userID}/likes/{eventID}", requireAuth(userController.RemoveLike))
	mux.HandleFunc("GET /users/{userID}/likes/{eventID}", userController.IsLiked)

	// Auth
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
