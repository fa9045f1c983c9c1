package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"congregate/internal/domain"
)

// Audit actions recorded for registration transitions.
const (
	auditActionEnrolled   = "rsvp.enrolled"
	auditActionWaitlisted = "rsvp.waitlisted"
	auditActionCancelled  = "rsvp.cancelled"
	auditActionPromoted   = "rsvp.promoted"
)

// sideEffectTimeout bounds post-commit notification and audit work, which
// runs detached from the request context.
const sideEffectTimeout = 10 * time.Second

type rsvpService struct {
	logger     *slog.Logger
	events     domain.EventRepository
	regs       domain.RegistrationRepository
	access     domain.AccessResolver
	visibility *VisibilityFilter
	notifier   domain.NotificationDispatcher
	audit      domain.AuditSink

	maxRetries int
	backoff    time.Duration
	now        func() time.Time
	// dispatch runs post-commit side effects. Replaced in tests to run
	// synchronously.
	dispatch func(fn func())
}

// NewRSVPService creates the RSVP service. maxRetries bounds how often a
// contended enrollment is retried before surfacing
// domain.ErrEnrollmentContention; backoff is the base delay between attempts.
func NewRSVPService(
	logger *slog.Logger,
	events domain.EventRepository,
	regs domain.RegistrationRepository,
	access domain.AccessResolver,
	visibility *VisibilityFilter,
	notifier domain.NotificationDispatcher,
	audit domain.AuditSink,
	maxRetries int,
	backoff time.Duration,
) domain.RSVPService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &rsvpService{
		logger:     logger,
		events:     events,
		regs:       regs,
		access:     access,
		visibility: visibility,
		notifier:   notifier,
		audit:      audit,
		maxRetries: maxRetries,
		backoff:    backoff,
		now:        time.Now,
		dispatch:   func(fn func()) { go fn() },
	}
}

// visibleEvent loads the event and enforces visibility. A hidden event is
// indistinguishable from a missing one.
func (s *rsvpService) visibleEvent(ctx context.Context, p domain.Principal, eventID string) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	churches, err := s.access.Resolve(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("resolve church access: %w", err)
	}
	if !s.visibility.Visible(p, churches, event) {
		return nil, domain.ErrNotFound
	}
	return event, nil
}

func (s *rsvpService) Enroll(ctx context.Context, p domain.Principal, eventID string) (*domain.EnrollResult, error) {
	event, err := s.visibleEvent(ctx, p, eventID)
	if err != nil {
		return nil, err
	}

	reg, err := s.enrollWithRetry(ctx, eventID, p.UserID)
	if err != nil {
		return nil, err
	}

	action := auditActionEnrolled
	if reg.Status == domain.StatusWaitlist {
		action = auditActionWaitlisted
	}
	s.recordAudit(action, reg, p, event.TenantID, map[string]any{
		"status": string(reg.Status),
	})

	return &domain.EnrollResult{
		Registration: reg,
		Waitlisted:   reg.Status == domain.StatusWaitlist,
	}, nil
}

// enrollWithRetry runs the enrollment transaction, retrying serialization
// conflicts with linear backoff up to the configured bound.
func (s *rsvpService) enrollWithRetry(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		reg, err := s.regs.Enroll(ctx, eventID, userID, s.now().UTC())
		if err == nil {
			return reg, nil
		}
		if !errors.Is(err, domain.ErrEnrollmentContention) {
			return nil, err
		}
		lastErr = err
		if attempt == s.maxRetries {
			break
		}
		s.logger.WarnContext(ctx, "enrollment conflict, retrying",
			"event_id", eventID, "user_id", userID, "attempt", attempt)
		if err := sleep(ctx, time.Duration(attempt)*s.backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (s *rsvpService) Cancel(ctx context.Context, p domain.Principal, eventID string) (*domain.CancelResult, error) {
	event, err := s.visibleEvent(ctx, p, eventID)
	if err != nil {
		return nil, err
	}

	cancelled, promoted, err := s.regs.CancelAndPromote(ctx, eventID, p.UserID, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrNotRegistered) {
			return nil, domain.ErrNotRegistered
		}
		return nil, fmt.Errorf("cancel registration: %w", err)
	}

	s.recordAudit(auditActionCancelled, cancelled, p, event.TenantID, map[string]any{
		"status": string(domain.StatusCancelled),
	})
	if promoted != nil {
		s.notifyPromotion(event, promoted)
		s.recordAudit(auditActionPromoted, promoted, p, event.TenantID, map[string]any{
			"status": string(domain.StatusGoing),
		})
	}

	return &domain.CancelResult{Cancelled: cancelled, Promoted: promoted}, nil
}

func (s *rsvpService) Get(ctx context.Context, p domain.Principal, eventID string) (*domain.Registration, error) {
	if _, err := s.visibleEvent(ctx, p, eventID); err != nil {
		return nil, err
	}
	reg, err := s.regs.GetLiveByEventAndUser(ctx, eventID, p.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (s *rsvpService) Attendees(ctx context.Context, p domain.Principal, eventID string) (*domain.AttendeeReport, error) {
	if _, err := s.visibleEvent(ctx, p, eventID); err != nil {
		return nil, err
	}
	counts, err := s.regs.Counts(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	live, err := s.regs.ListLiveByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	report := &domain.AttendeeReport{
		EventID:  eventID,
		Counts:   counts,
		Going:    []*domain.Registration{},
		Waitlist: []*domain.Registration{},
	}
	for _, reg := range live {
		switch reg.Status {
		case domain.StatusGoing:
			report.Going = append(report.Going, reg)
		case domain.StatusWaitlist:
			report.Waitlist = append(report.Waitlist, reg)
		}
	}
	return report, nil
}

// notifyPromotion tells the promoted user their seat is confirmed. The
// promotion has already committed; a delivery failure is logged and dropped.
func (s *rsvpService) notifyPromotion(event *domain.Event, promoted *domain.Registration) {
	userID := promoted.UserID
	message := fmt.Sprintf("A seat opened up: you are now confirmed for %s.", event.Name)
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, userID, message); err != nil {
			s.logger.Error("promotion notification failed",
				"user_id", userID, "event_id", event.ID, "err", err)
		}
	})
}

// recordAudit records a committed transition. Audit failures never propagate
// into the caller's result.
func (s *rsvpService) recordAudit(action string, reg *domain.Registration, actor domain.Principal, tenantID string, changes map[string]any) {
	entry := domain.AuditEntry{
		Action:   action,
		EntityID: reg.ID,
		ActorID:  actor.UserID,
		TenantID: tenantID,
		Changes:  changes,
		At:       s.now().UTC(),
	}
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Error("audit record failed", "action", action, "entity_id", entry.EntityID, "err", err)
		}
	})
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
