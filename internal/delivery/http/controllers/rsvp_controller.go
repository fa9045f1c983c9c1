package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"congregate/internal/delivery/http/helpers"
	"congregate/internal/delivery/http/middleware"
	"congregate/internal/domain"
)

// RSVPController serves the per-event registration endpoints.
type RSVPController struct {
	Logger  *slog.Logger
	Service domain.RSVPService
}

// NewRSVPController creates an RSVPController.
func NewRSVPController(logger *slog.Logger, svc domain.RSVPService) *RSVPController {
	return &RSVPController{Logger: logger, Service: svc}
}

// RSVPPayload is the wire form of a registration.
// swagger:model RSVPPayload
type RSVPPayload struct {
	ID      string    `json:"id"`
	Status  string    `json:"status"`
	RSVPAt  time.Time `json:"rsvpAt"`
	HasPaid bool      `json:"hasPaid"`
}

// RSVPData is the data object returned by the RSVP endpoints.
// swagger:model RSVPData
type RSVPData struct {
	RSVP    RSVPPayload `json:"rsvp"`
	Message string      `json:"message"`
}

func rsvpPayload(reg *domain.Registration) RSVPPayload {
	return RSVPPayload{
		ID:      reg.ID,
		Status:  string(reg.Status),
		RSVPAt:  reg.RegisteredAt,
		HasPaid: reg.HasPaid,
	}
}

// Enroll godoc
// @Summary RSVP to an event
// @Description Registers the authenticated user for the event, seating them if capacity allows and waitlisting them otherwise.
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 201 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 503 {object} helpers.APIResponse "error.code: temporarily_unavailable"
// @Router /events/{eventID}/rsvp [post]
func (c *RSVPController) Enroll(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	res, err := c.Service.Enroll(r.Context(), principal, eventID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}

	message := "You are confirmed for this event."
	if res.Waitlisted {
		message = "The event is full; you have been added to the waitlist."
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, RSVPData{
		RSVP:    rsvpPayload(res.Registration),
		Message: message,
	})
}

// Cancel godoc
// @Summary Cancel the caller's RSVP
// @Description Cancels the authenticated user's live registration. Freeing a confirmed seat promotes the earliest waitlisted user.
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/rsvp [delete]
func (c *RSVPController) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	res, err := c.Service.Cancel(r.Context(), principal, eventID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}

	helpers.WriteJSONSuccess(w, http.StatusOK, RSVPData{
		RSVP:    rsvpPayload(res.Cancelled),
		Message: "Your registration has been cancelled.",
	})
}

// Get godoc
// @Summary Get the caller's RSVP
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/rsvp [get]
func (c *RSVPController) Get(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	reg, err := c.Service.Get(r.Context(), principal, eventID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RSVPData{RSVP: rsvpPayload(reg)})
}

// Attendees godoc
// @Summary List an event's attendees
// @Description Read-only report of going/waitlist counts and attendee rows, in promotion order.
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/attendees [get]
func (c *RSVPController) Attendees(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	report, err := c.Service.Attendees(r.Context(), principal, eventID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report)
}
