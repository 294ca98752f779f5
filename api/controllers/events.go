package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/pulseboardhq/pulseboard-backend/api/responses"
	"github.com/pulseboardhq/pulseboard-backend/api/validators"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
	"github.com/pulseboardhq/pulseboard-backend/pkg/logger"
	"github.com/pulseboardhq/pulseboard-backend/pkg/metrics"
	"github.com/pulseboardhq/pulseboard-backend/pkg/pagination"
	"github.com/pulseboardhq/pulseboard-backend/pkg/types"
)

// maxUserIDLen bounds the free-text user identifier; the column is text so
// the cap only protects indexes from pathological producers.
const maxUserIDLen = 128

type ingestEventsRequest struct {
	Events []eventPayload `json:"events" validate:"required,min=1,dive"`
}

type eventPayload struct {
	ID        string  `json:"id,omitempty"`
	UserID    string  `json:"user_id" validate:"required"`
	EventType string  `json:"event_type" validate:"required"`
	EventDate string  `json:"event_date" validate:"required"`
	Revenue   float64 `json:"revenue" validate:"gte=0"`
	Device    string  `json:"device" validate:"required"`
	Channel   string  `json:"channel" validate:"required"`
	ABGroup   string  `json:"ab_group" validate:"required"`
}

type ingestEventsResponse struct {
	Accepted   int64 `json:"accepted"`
	Duplicates int64 `json:"duplicates"`
}

// IngestEvents accepts a batch of behavioral events, rejects the batch if
// any row violates the schema, and inserts the rest idempotently by id.
func IngestEvents(repo events.Repository, m *metrics.ComputeMetrics, maxBatch int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event store unavailable"))
			return
		}

		var payload ingestEventsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if maxBatch > 0 && len(payload.Events) > maxBatch {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "batch exceeds the maximum size").
					WithDetails(map[string]any{"rows": len(payload.Events), "max": maxBatch}))
			return
		}

		batch, err := toEvents(payload.Events)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := events.ValidateAll(batch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accepted, err := repo.InsertBatch(r.Context(), batch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting events"))
			return
		}
		m.AddIngested(int(accepted))

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"accepted":   accepted,
				"duplicates": int64(len(batch)) - accepted,
			})
			logg.Info(ctx, "events ingested")
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, ingestEventsResponse{
			Accepted:   accepted,
			Duplicates: int64(len(batch)) - accepted,
		})
	}
}

// ListEvents pages through the raw log in (occurred_on, id) order.
func ListEvents(repo events.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event store unavailable"))
			return
		}

		filter, err := resolveFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := pagination.ParseCursor(r.URL.Query().Get("cursor"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}

		list, next, err := repo.List(r.Context(), events.ListQuery{Filter: filter, Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing events"))
			return
		}

		responses.WritePage(w, list, types.PageMeta{NextCursor: next, Count: len(list)})
	}
}

func toEvents(payloads []eventPayload) ([]events.Event, error) {
	batch := make([]events.Event, 0, len(payloads))
	var combined error
	bad := 0
	for i, p := range payloads {
		e, err := p.toEvent()
		if err != nil {
			combined = multierr.Append(combined, fmt.Errorf("row %d: %w", i, err))
			bad++
			continue
		}
		batch = append(batch, e)
	}
	if combined != nil {
		return nil, pkgerrors.
			Wrap(pkgerrors.CodeSchemaViolation, combined, "batch failed schema validation").
			WithDetails(map[string]any{"invalid_rows": bad, "total_rows": len(payloads)})
	}
	return batch, nil
}

func (p eventPayload) toEvent() (events.Event, error) {
	var id uuid.UUID
	if raw := strings.TrimSpace(p.ID); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return events.Event{}, fmt.Errorf("invalid event id %q", raw)
		}
		id = parsed
	}

	day, err := parseDateParam(p.EventDate)
	if err != nil {
		return events.Event{}, err
	}

	kind, err := enums.ParseEventType(p.EventType)
	if err != nil {
		return events.Event{}, err
	}
	device, err := enums.ParseDeviceType(p.Device)
	if err != nil {
		return events.Event{}, err
	}
	channel, err := enums.ParseAcquisitionChannel(p.Channel)
	if err != nil {
		return events.Event{}, err
	}
	group, err := enums.ParseExperimentGroup(p.ABGroup)
	if err != nil {
		return events.Event{}, err
	}

	return events.Event{
		ID:         id,
		UserID:     validators.SanitizeString(p.UserID, maxUserIDLen),
		Type:       kind,
		OccurredOn: day,
		Revenue:    events.NormalizeRevenue(p.Revenue),
		Device:     device,
		Channel:    channel,
		Group:      group,
	}, nil
}
