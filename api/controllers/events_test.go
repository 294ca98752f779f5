package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
	pkgtypes "github.com/pulseboardhq/pulseboard-backend/pkg/types"
)

const ingestBody = `{
	"events": [
		{"user_id": "u1", "event_type": "signup", "event_date": "2025-01-03", "revenue": 0, "device": "mobile", "channel": "organic", "ab_group": "A"},
		{"user_id": "u1", "event_type": "purchase", "event_date": "2025-01-05", "revenue": 12.3456, "device": "mobile", "channel": "organic", "ab_group": "A"}
	]
}`

func TestIngestEventsAcceptsBatch(t *testing.T) {
	repo := &testEventsRepo{}
	handler := IngestEvents(repo, nil, 100, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(ingestBody))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if len(repo.inserted) != 2 {
		t.Fatalf("expected 2 rows inserted, got %d", len(repo.inserted))
	}

	purchase := repo.inserted[1]
	if purchase.Type != enums.EventPurchase {
		t.Fatalf("unexpected event type %q", purchase.Type)
	}
	if purchase.Revenue != 12.35 {
		t.Fatalf("expected revenue rounded to cents, got %v", purchase.Revenue)
	}
	wantDay := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	if !purchase.OccurredOn.Equal(wantDay) {
		t.Fatalf("expected occurred_on %v, got %v", wantDay, purchase.OccurredOn)
	}

	var envelope struct {
		Data ingestEventsResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Accepted != 2 || envelope.Data.Duplicates != 0 {
		t.Fatalf("unexpected ingest counts: %+v", envelope.Data)
	}
}

func TestIngestEventsReportsDuplicates(t *testing.T) {
	repo := &testEventsRepo{duplicates: 1}
	handler := IngestEvents(repo, nil, 100, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(ingestBody))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data ingestEventsResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Accepted != 1 || envelope.Data.Duplicates != 1 {
		t.Fatalf("unexpected ingest counts: %+v", envelope.Data)
	}
}

func TestIngestEventsRejectsSchemaViolations(t *testing.T) {
	repo := &testEventsRepo{}
	handler := IngestEvents(repo, nil, 100, testLogger())

	body := `{"events": [{"user_id": "u1", "event_type": "teleport", "event_date": "2025-01-03", "device": "mobile", "channel": "organic", "ab_group": "A"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown event type, got %d", resp.Code)
	}
	var envelope pkgtypes.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeSchemaViolation) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("no rows should be inserted when the batch fails validation")
	}
}

func TestIngestEventsRejectsMissingFields(t *testing.T) {
	repo := &testEventsRepo{}
	handler := IngestEvents(repo, nil, 100, testLogger())

	body := `{"events": [{"event_type": "signup", "event_date": "2025-01-03", "device": "mobile", "channel": "organic", "ab_group": "A"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing user_id, got %d", resp.Code)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("no rows should be inserted when the batch fails validation")
	}
}

func TestIngestEventsRejectsOversizedBatch(t *testing.T) {
	repo := &testEventsRepo{}
	handler := IngestEvents(repo, nil, 1, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(ingestBody))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized batch, got %d", resp.Code)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("no rows should be inserted when the batch is too large")
	}
}

func TestIngestEventsRejectsMalformedJSON(t *testing.T) {
	repo := &testEventsRepo{}
	handler := IngestEvents(repo, nil, 100, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"events": [`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", resp.Code)
	}
}

func TestListEventsReturnsPageMeta(t *testing.T) {
	repo := &testEventsRepo{
		listed: []events.Event{
			{UserID: "u1", Type: enums.EventSignup, OccurredOn: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)},
			{UserID: "u2", Type: enums.EventLogin, OccurredOn: time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)},
		},
		listNext: "opaque-cursor",
	}
	handler := ListEvents(repo, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=2&devices=mobile", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if repo.lastList.Limit != 2 {
		t.Fatalf("expected limit 2, got %d", repo.lastList.Limit)
	}
	if len(repo.lastList.Filter.Devices) != 1 || repo.lastList.Filter.Devices[0] != enums.DeviceMobile {
		t.Fatalf("unexpected device filter: %v", repo.lastList.Filter.Devices)
	}

	var envelope struct {
		Data []events.Event     `json:"data"`
		Meta *pkgtypes.PageMeta `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(envelope.Data))
	}
	if envelope.Meta == nil || envelope.Meta.NextCursor != "opaque-cursor" || envelope.Meta.Count != 2 {
		t.Fatalf("unexpected page meta: %+v", envelope.Meta)
	}
}

func TestListEventsRejectsBadCursor(t *testing.T) {
	repo := &testEventsRepo{}
	handler := ListEvents(repo, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?cursor=%21%21%21", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad cursor, got %d", resp.Code)
	}
}
