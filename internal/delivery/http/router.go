package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"congregate/internal/delivery/http/controllers"
	"congregate/internal/delivery/http/middleware"
	"congregate/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	allowedOrigins []string,
	rsvpController *controllers.RSVPController,
	syncController *controllers.SyncController,
	healthController *controllers.HealthController,
) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)

	// Registrations
	mux.HandleFunc("POST /events/{eventID}/rsvp", auth(rsvpController.Enroll))
	mux.HandleFunc("DELETE /events/{eventID}/rsvp", auth(rsvpController.Cancel))
	mux.HandleFunc("GET /events/{eventID}/rsvp", auth(rsvpController.Get))
	mux.HandleFunc("GET /events/{eventID}/attendees", auth(rsvpController.Attendees))

	// Offline sync
	mux.HandleFunc("POST /sync/events/rsvp/bulk", auth(syncController.Bulk))

	// Operational
	mux.HandleFunc("GET /healthz", healthController.Check)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.CORS(allowedOrigins, middleware.Logging(logger, mux))
}
