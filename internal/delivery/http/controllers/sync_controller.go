package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"congregate/internal/delivery/http/helpers"
	"congregate/internal/delivery/http/middleware"
	"congregate/internal/domain"
)

// SyncController serves the bulk offline-sync endpoint used by mobile
// clients.
type SyncController struct {
	Logger  *slog.Logger
	Service domain.SyncService
}

// NewSyncController creates a SyncController.
func NewSyncController(logger *slog.Logger, svc domain.SyncService) *SyncController {
	return &SyncController{Logger: logger, Service: svc}
}

// SyncIntentRequest is one registration intent in a bulk sync request.
// swagger:model SyncIntentRequest
type SyncIntentRequest struct {
	EventID     string    `json:"eventId"`
	UserID      string    `json:"userId,omitempty"`
	Status      string    `json:"status"`
	ClientToken string    `json:"clientToken"`
	DeclaredAt  time.Time `json:"declaredAt"`
}

// BulkSyncRequest is the request body for POST /sync/events/rsvp/bulk.
// swagger:model BulkSyncRequest
type BulkSyncRequest struct {
	Intents            []SyncIntentRequest `json:"intents"`
	ConflictResolution string              `json:"conflictResolution"`
}

// Validate implements helpers.Validator. Structural checks only; per-intent
// semantic validation happens item by item so one bad intent cannot reject
// its siblings.
func (r *BulkSyncRequest) Validate() []string {
	var errs []string
	if len(r.Intents) == 0 {
		errs = append(errs, "intents must not be empty")
	}
	if !domain.ConflictPolicy(strings.TrimSpace(r.ConflictResolution)).Valid() {
		errs = append(errs, "conflictResolution must be last-write-wins or fail-on-conflict")
	}
	return errs
}

// BulkSyncResponse is the data object returned by the bulk sync endpoint.
// swagger:model BulkSyncResponse
type BulkSyncResponse struct {
	Results   []domain.SyncItemResult `json:"results"`
	Summary   domain.SyncSummary      `json:"summary"`
	Timestamp time.Time               `json:"timestamp"`
}

// Bulk godoc
// @Summary Apply a batch of offline registration intents
// @Description Applies each intent exactly once, keyed by its client token; replays return the stored result. Partial success is normal.
// @Tags sync
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body controllers.BulkSyncRequest true "Intents and conflict policy"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /sync/events/rsvp/bulk [post]
func (c *SyncController) Bulk(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var req BulkSyncRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	intents := make([]domain.RegistrationIntent, 0, len(req.Intents))
	for _, in := range req.Intents {
		intents = append(intents, domain.RegistrationIntent{
			EventID:     in.EventID,
			UserID:      in.UserID,
			Status:      domain.IntentStatus(in.Status),
			ClientToken: in.ClientToken,
			DeclaredAt:  in.DeclaredAt,
		})
	}

	result, err := c.Service.Process(r.Context(), principal, intents, domain.ConflictPolicy(req.ConflictResolution))
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}

	helpers.WriteJSONSuccess(w, http.StatusOK, BulkSyncResponse{
		Results:   result.Results,
		Summary:   result.Summary,
		Timestamp: result.Timestamp,
	})
}
