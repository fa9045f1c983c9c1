package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"congregate/internal/domain"
)

// testLogger discards output so tests don't assert on logs.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type mockEventRepository struct {
	events map[string]*domain.Event
	err    error
}

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	ev, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

type mockMembershipRepository struct {
	churchesByUser map[string][]string // userID -> church IDs
	emailsByUser   map[string]string
	err            error
}

func (m *mockMembershipRepository) ListChurchIDsByUser(ctx context.Context, tenantID, userID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.churchesByUser[userID], nil
}

func (m *mockMembershipRepository) GetUserEmail(ctx context.Context, userID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	email, ok := m.emailsByUser[userID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return email, nil
}

// mockRegistrationRepository scripts Enroll/CancelAndPromote outcomes.
type mockRegistrationRepository struct {
	enrollResult *domain.Registration
	enrollErr    error
	// enrollErrs, when non-empty, is consumed one error per Enroll call
	// (nil means success with enrollResult). Used for retry tests.
	enrollErrs  []error
	enrollCalls int
	cancelled   *domain.Registration
	promoted    *domain.Registration
	cancelErr   error
	liveByKey   map[string]*domain.Registration // eventID:userID -> live row
	liveErr     error
	counts      domain.EventCounts
	countsErr   error
	liveList    []*domain.Registration
	listErr     error
}

func regKey(eventID, userID string) string { return eventID + ":" + userID }

func (m *mockRegistrationRepository) Enroll(ctx context.Context, eventID, userID string, at time.Time) (*domain.Registration, error) {
	m.enrollCalls++
	if len(m.enrollErrs) > 0 {
		err := m.enrollErrs[0]
		m.enrollErrs = m.enrollErrs[1:]
		if err != nil {
			return nil, err
		}
		return m.enrollResult, nil
	}
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	return m.enrollResult, nil
}

func (m *mockRegistrationRepository) CancelAndPromote(ctx context.Context, eventID, userID string, at time.Time) (*domain.Registration, *domain.Registration, error) {
	if m.cancelErr != nil {
		return nil, nil, m.cancelErr
	}
	return m.cancelled, m.promoted, nil
}

func (m *mockRegistrationRepository) GetLiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	if m.liveErr != nil {
		return nil, m.liveErr
	}
	if reg, ok := m.liveByKey[regKey(eventID, userID)]; ok {
		return reg, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockRegistrationRepository) Counts(ctx context.Context, eventID string) (domain.EventCounts, error) {
	if m.countsErr != nil {
		return domain.EventCounts{}, m.countsErr
	}
	return m.counts, nil
}

func (m *mockRegistrationRepository) ListLiveByEvent(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.liveList, nil
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []string // "userID|message"
	err   error
}

func (m *mockNotifier) Notify(ctx context.Context, userID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, userID+"|"+message)
	return m.err
}

type mockAuditSink struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (m *mockAuditSink) Record(ctx context.Context, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

type mockIdempotencyRepository struct {
	records map[string]*domain.IdempotencyRecord // endpoint:userID:token
	putErr  error
	getErr  error
	puts    []*domain.IdempotencyRecord
}

func idemKey(endpoint, userID, token string) string {
	return endpoint + ":" + userID + ":" + token
}

func (m *mockIdempotencyRepository) Get(ctx context.Context, endpoint, userID, clientToken string) (*domain.IdempotencyRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[idemKey(endpoint, userID, clientToken)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (m *mockIdempotencyRepository) Put(ctx context.Context, rec *domain.IdempotencyRecord) error {
	if m.putErr != nil {
		return m.putErr
	}
	if m.records == nil {
		m.records = make(map[string]*domain.IdempotencyRecord)
	}
	key := idemKey(rec.Endpoint, rec.UserID, rec.ClientToken)
	if _, ok := m.records[key]; !ok {
		m.records[key] = rec
	}
	m.puts = append(m.puts, rec)
	return nil
}

func (m *mockIdempotencyRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}
