package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Event is one row of the behavioral log. Dates are UTC at day
// granularity; revenue rides only on purchase rows.
type Event struct {
	ID         uuid.UUID                `json:"id"`
	UserID     string                   `json:"user_id"`
	Type       enums.EventType          `json:"event_type"`
	OccurredOn time.Time                `json:"event_date"`
	Revenue    float64                  `json:"revenue"`
	Device     enums.DeviceType         `json:"device"`
	Channel    enums.AcquisitionChannel `json:"channel"`
	Group      enums.ExperimentGroup    `json:"ab_group"`
}

// Day returns the event date truncated to UTC midnight.
func (e Event) Day() time.Time {
	return time.Date(e.OccurredOn.Year(), e.OccurredOn.Month(), e.OccurredOn.Day(), 0, 0, 0, 0, time.UTC)
}

// Month returns the first day of the event's month in UTC.
func (e Event) Month() time.Time {
	return time.Date(e.OccurredOn.Year(), e.OccurredOn.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NormalizeRevenue rounds an amount to cents. Ingest applies it before
// persisting so float payloads cannot smuggle sub-cent residue into the
// revenue sums.
func NormalizeRevenue(amount float64) float64 {
	out, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return out
}

// Validate enforces the schema contract on a single event.
func Validate(e Event) error {
	if e.UserID == "" {
		return violation("user_id", "", "user_id must not be empty")
	}
	if !e.Type.IsValid() {
		return violation("event_type", string(e.Type), "unknown event type")
	}
	if e.OccurredOn.IsZero() {
		return violation("event_date", "", "event date is required")
	}
	if e.Revenue < 0 {
		return violation("revenue", fmt.Sprintf("%v", e.Revenue), "revenue must be non-negative")
	}
	if e.Revenue > 0 && e.Type != enums.EventPurchase {
		return violation("revenue", fmt.Sprintf("%v", e.Revenue), "revenue is only valid on purchase events")
	}
	if !e.Device.IsValid() {
		return violation("device", string(e.Device), "unknown device type")
	}
	if !e.Channel.IsValid() {
		return violation("channel", string(e.Channel), "unknown acquisition channel")
	}
	if !e.Group.IsValid() {
		return violation("ab_group", string(e.Group), "unknown experiment group")
	}
	return nil
}

// ValidateAll checks every event and reports all offending rows at once.
func ValidateAll(batch []Event) error {
	var combined error
	bad := 0
	for i, e := range batch {
		if err := Validate(e); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("row %d: %w", i, err))
			bad++
		}
	}
	if combined == nil {
		return nil
	}
	return pkgerrors.
		Wrap(pkgerrors.CodeSchemaViolation, combined, "batch failed schema validation").
		WithDetails(map[string]any{"invalid_rows": bad, "total_rows": len(batch)})
}

func violation(field, value, msg string) error {
	details := map[string]any{"field": field}
	if value != "" {
		details["value"] = value
	}
	return pkgerrors.New(pkgerrors.CodeSchemaViolation, msg).WithDetails(details)
}
