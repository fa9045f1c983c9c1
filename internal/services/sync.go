package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"congregate/internal/domain"
)

// syncEndpoint keys idempotency records for the bulk RSVP sync endpoint.
const syncEndpoint = "sync.events.rsvp.bulk"

type syncService struct {
	logger      *slog.Logger
	rsvp        domain.RSVPService
	regs        domain.RegistrationRepository
	idempotency domain.IdempotencyRepository

	maxBatch  int
	retention time.Duration
	now       func() time.Time
}

// NewSyncService creates the bulk sync processor. maxBatch caps how many
// intents one call may carry; retention is how long stored results are
// replayable.
func NewSyncService(
	logger *slog.Logger,
	rsvp domain.RSVPService,
	regs domain.RegistrationRepository,
	idempotency domain.IdempotencyRepository,
	maxBatch int,
	retention time.Duration,
) domain.SyncService {
	return &syncService{
		logger:      logger,
		rsvp:        rsvp,
		regs:        regs,
		idempotency: idempotency,
		maxBatch:    maxBatch,
		retention:   retention,
		now:         time.Now,
	}
}

// Process applies the batch item by item. Oversized batches and unknown
// policies are rejected wholesale before any item runs; after that, one
// item's failure never aborts its siblings.
func (s *syncService) Process(ctx context.Context, p domain.Principal, intents []domain.RegistrationIntent, policy domain.ConflictPolicy) (*domain.SyncResult, error) {
	if len(intents) == 0 {
		return nil, fmt.Errorf("%w: empty batch", domain.ErrInvalidInput)
	}
	if len(intents) > s.maxBatch {
		return nil, fmt.Errorf("%w: batch size %d exceeds limit %d", domain.ErrInvalidInput, len(intents), s.maxBatch)
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: unknown conflict policy %q", domain.ErrInvalidInput, policy)
	}

	result := &domain.SyncResult{
		Results:   make([]domain.SyncItemResult, 0, len(intents)),
		Timestamp: s.now().UTC(),
	}
	for _, intent := range intents {
		item := s.processIntent(ctx, p, intent, policy)
		result.Results = append(result.Results, item)

		result.Summary.Total++
		switch item.Action {
		case domain.SyncActionConflict:
			result.Summary.Conflicts++
		case domain.SyncActionFailed:
			result.Summary.Failed++
		case domain.SyncActionWaitlisted:
			result.Summary.Waitlisted++
			result.Summary.Successful++
		default:
			result.Summary.Successful++
		}
	}
	return result, nil
}

func (s *syncService) processIntent(ctx context.Context, p domain.Principal, intent domain.RegistrationIntent, policy domain.ConflictPolicy) domain.SyncItemResult {
	if err := validateIntent(p, intent); err != nil {
		return domain.SyncItemResult{
			ClientToken: intent.ClientToken,
			EventID:     intent.EventID,
			Action:      domain.SyncActionFailed,
			Error:       err.Error(),
		}
	}

	// Replay detection: an unexpired stored result is returned verbatim.
	if stored, err := s.idempotency.Get(ctx, syncEndpoint, p.UserID, intent.ClientToken); err == nil {
		var item domain.SyncItemResult
		if err := json.Unmarshal(stored.Result, &item); err != nil {
			s.logger.Error("stored sync result is unreadable",
				"client_token", intent.ClientToken, "err", err)
			return domain.SyncItemResult{
				ClientToken: intent.ClientToken,
				EventID:     intent.EventID,
				Action:      domain.SyncActionFailed,
				Error:       "stored result unreadable",
			}
		}
		item.Replayed = true
		return item
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.SyncItemResult{
			ClientToken: intent.ClientToken,
			EventID:     intent.EventID,
			Action:      domain.SyncActionFailed,
			Error:       "idempotency lookup failed",
		}
	}

	item, transient := s.apply(ctx, p, intent, policy)
	if transient {
		// Contention, lookup failures and other infrastructure errors must
		// stay replayable as fresh work: storing them would pin the token to
		// a failure the client's retry can never get past.
		return item
	}
	return s.finish(ctx, p, item)
}

// apply runs one fresh intent through the shared enroll/cancel primitives.
// The second return marks transient failures whose result must not be
// persisted under the client token.
func (s *syncService) apply(ctx context.Context, p domain.Principal, intent domain.RegistrationIntent, policy domain.ConflictPolicy) (domain.SyncItemResult, bool) {
	item := domain.SyncItemResult{
		ClientToken: intent.ClientToken,
		EventID:     intent.EventID,
	}

	live, err := s.regs.GetLiveByEventAndUser(ctx, intent.EventID, p.UserID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		live = nil
	case err != nil:
		item.Action = domain.SyncActionFailed
		item.Error = "registration lookup failed"
		return item, true
	}

	if live == nil {
		if intent.Status == domain.IntentCancelled {
			// Nothing to cancel; record the outcome so replays stay cheap.
			item.Action = domain.SyncActionNoop
			return item, false
		}
		res, err := s.rsvp.Enroll(ctx, p, intent.EventID)
		if err != nil {
			return s.itemFromError(item, err)
		}
		item.Registration = res.Registration
		if res.Waitlisted {
			item.Action = domain.SyncActionWaitlisted
		} else {
			item.Action = domain.SyncActionCreated
		}
		return item, false
	}

	if policy == domain.ConflictFail {
		item.Action = domain.SyncActionConflict
		item.Error = domain.ErrConflict.Error()
		return item, false
	}

	// Last write wins.
	switch intent.Status {
	case domain.IntentCancelled:
		res, err := s.rsvp.Cancel(ctx, p, intent.EventID)
		if err != nil {
			return s.itemFromError(item, err)
		}
		item.Registration = res.Cancelled
		item.Action = domain.SyncActionCancelled
		return item, false
	case domain.IntentGoing:
		if live.Status == domain.StatusWaitlist {
			// Waitlist -> going is a promotion; clients may not claim it.
			item.Action = domain.SyncActionFailed
			item.Error = domain.ErrInvalidTransition.Error()
			return item, false
		}
		// Already going; the requested state already holds.
		item.Registration = live
		item.Action = domain.SyncActionNoop
		return item, false
	}
	item.Action = domain.SyncActionFailed
	item.Error = domain.ErrInvalidInput.Error()
	return item, false
}

func (s *syncService) itemFromError(item domain.SyncItemResult, err error) (domain.SyncItemResult, bool) {
	switch {
	case errors.Is(err, domain.ErrAlreadyRegistered):
		item.Action = domain.SyncActionConflict
		item.Error = err.Error()
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNotRegistered),
		errors.Is(err, domain.ErrInvalidTransition):
		item.Action = domain.SyncActionFailed
		item.Error = err.Error()
	case errors.Is(err, domain.ErrEnrollmentContention):
		item.Action = domain.SyncActionFailed
		item.Error = err.Error()
		return item, true
	default:
		item.Action = domain.SyncActionFailed
		item.Error = "internal error"
		return item, true
	}
	return item, false
}

// finish persists the computed result under the client token before returning
// it, so redelivery after a crash replays instead of re-applying. A storage
// failure is logged; the mutation has already happened and must be reported.
func (s *syncService) finish(ctx context.Context, p domain.Principal, item domain.SyncItemResult) domain.SyncItemResult {
	payload, err := json.Marshal(item)
	if err != nil {
		s.logger.Error("marshal sync result", "client_token", item.ClientToken, "err", err)
		return item
	}
	now := s.now().UTC()
	rec := &domain.IdempotencyRecord{
		Endpoint:    syncEndpoint,
		UserID:      p.UserID,
		ClientToken: item.ClientToken,
		Result:      payload,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.retention),
	}
	if err := s.idempotency.Put(ctx, rec); err != nil {
		s.logger.Error("store idempotency record", "client_token", item.ClientToken, "err", err)
	}
	return item
}

func validateIntent(p domain.Principal, intent domain.RegistrationIntent) error {
	if strings.TrimSpace(intent.ClientToken) == "" {
		return fmt.Errorf("%w: clientToken is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(intent.EventID) == "" {
		return fmt.Errorf("%w: eventId is required", domain.ErrInvalidInput)
	}
	if !intent.Status.Valid() {
		return fmt.Errorf("%w: status must be going or cancelled", domain.ErrInvalidInput)
	}
	if intent.UserID != "" && intent.UserID != p.UserID {
		return fmt.Errorf("%w: intent user does not match the authenticated user", domain.ErrInvalidInput)
	}
	return nil
}
