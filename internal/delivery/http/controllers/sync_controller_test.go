package controllers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"congregate/internal/delivery/http/helpers"
	"congregate/internal/delivery/http/middleware"
	"congregate/internal/domain"
)

// fakeSyncService implements domain.SyncService for controller tests.
type fakeSyncService struct {
	result *domain.SyncResult
	err    error

	lastIntents []domain.RegistrationIntent
	lastPolicy  domain.ConflictPolicy
}

func (f *fakeSyncService) Process(ctx context.Context, p domain.Principal, intents []domain.RegistrationIntent, policy domain.ConflictPolicy) (*domain.SyncResult, error) {
	f.lastIntents, f.lastPolicy = intents, policy
	return f.result, f.err
}

func TestSyncController_Bulk(t *testing.T) {
	okResult := &domain.SyncResult{
		Results: []domain.SyncItemResult{
			{ClientToken: "tok-1", EventID: "ev-1", Action: domain.SyncActionCreated},
		},
		Summary:   domain.SyncSummary{Total: 1, Successful: 1},
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name        string
		body        string
		fake        *fakeSyncService
		wantStatus  int
		wantErrCode string
		wantIntents int
	}{
		{
			name:        "applies intents",
			body:        `{"intents":[{"eventId":"ev-1","status":"going","clientToken":"tok-1"}],"conflictResolution":"last-write-wins"}`,
			fake:        &fakeSyncService{result: okResult},
			wantStatus:  http.StatusOK,
			wantIntents: 1,
		},
		{
			name:        "invalid json",
			body:        `{invalid`,
			fake:        &fakeSyncService{},
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "empty batch",
			body:        `{"intents":[],"conflictResolution":"last-write-wins"}`,
			fake:        &fakeSyncService{},
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "unknown policy",
			body:        `{"intents":[{"eventId":"ev-1","status":"going","clientToken":"tok-1"}],"conflictResolution":"merge"}`,
			fake:        &fakeSyncService{},
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "batch over cap",
			body:        oversizedBatchBody(),
			fake:        &fakeSyncService{err: fmt.Errorf("%w: batch exceeds 50 intents", domain.ErrInvalidInput)},
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewSyncController(discardLogger(), tt.fake)
			req := httptest.NewRequest(http.MethodPost, "/sync/events/rsvp/bulk", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(middleware.SetPrincipal(req.Context(), testPrincipal()))
			rr := httptest.NewRecorder()

			ctrl.Bulk(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			env := decodeEnvelope(t, rr)
			if tt.wantErrCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantErrCode, env.Error.Code)
				return
			}
			assert.True(t, env.Success)
			assert.Len(t, tt.fake.lastIntents, tt.wantIntents)
			assert.Equal(t, domain.ConflictLastWriteWins, tt.fake.lastPolicy)
			assert.Contains(t, rr.Body.String(), `"action":"created"`)
			assert.Contains(t, rr.Body.String(), `"summary"`)
			assert.Contains(t, rr.Body.String(), `"timestamp"`)
		})
	}
}

func TestSyncController_Bulk_Unauthenticated(t *testing.T) {
	ctrl := NewSyncController(discardLogger(), &fakeSyncService{})
	body := bytes.NewBufferString(`{"intents":[],"conflictResolution":"last-write-wins"}`)
	req := httptest.NewRequest(http.MethodPost, "/sync/events/rsvp/bulk", body)
	rr := httptest.NewRecorder()

	ctrl.Bulk(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

// oversizedBatchBody builds a syntactically valid request with more intents
// than the service-side cap, so rejection must come from the service.
func oversizedBatchBody() string {
	var buf bytes.Buffer
	buf.WriteString(`{"intents":[`)
	for i := 0; i < 51; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `{"eventId":"ev-1","status":"going","clientToken":"tok-%d"}`, i)
	}
	buf.WriteString(`],"conflictResolution":"last-write-wins"}`)
	return buf.String()
}
