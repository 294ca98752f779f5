package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pulseboardhq/pulseboard-backend/api/validators"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
)

const dateOnlyLayout = "2006-01-02"

var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

// resolveFilter parses the query parameters every analytics route shares:
// from/to date bounds (either side may be open), a relative preset when no
// explicit bound is given, and channel/device/group narrowing.
func resolveFilter(r *http.Request) (events.Filter, error) {
	query := r.URL.Query()
	var f events.Filter

	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))
	if from != "" {
		day, err := parseDateParam(from)
		if err != nil {
			return events.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid from date").WithDetails(map[string]any{"value": from})
		}
		f.From = day
	}
	if to != "" {
		day, err := parseDateParam(to)
		if err != nil {
			return events.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid to date").WithDetails(map[string]any{"value": to})
		}
		f.To = day
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return events.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "to must not precede from")
	}

	if from == "" && to == "" {
		if preset := strings.TrimSpace(query.Get("preset")); preset != "" {
			duration, ok := presetDuration(preset)
			if !ok {
				return events.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid preset").WithDetails(map[string]any{"value": preset})
			}
			now := timeNowUTC()
			f.To = now
			f.From = now.Add(-duration)
		}
	}

	for _, raw := range validators.ParseQueryList(r, "channels") {
		channel, err := enums.ParseAcquisitionChannel(raw)
		if err != nil {
			return events.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown acquisition channel").WithDetails(map[string]any{"value": raw})
		}
		f.Channels = append(f.Channels, channel)
	}
	for _, raw := range validators.ParseQueryList(r, "devices") {
		device, err := enums.ParseDeviceType(raw)
		if err != nil {
			return events.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown device type").WithDetails(map[string]any{"value": raw})
		}
		f.Devices = append(f.Devices, device)
	}
	if raw := strings.TrimSpace(query.Get("group")); raw != "" {
		group, err := enums.ParseExperimentGroup(raw)
		if err != nil {
			return events.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown experiment group").WithDetails(map[string]any{"value": raw})
		}
		f.Group = group
	}

	return f, nil
}

func parseDateParam(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if t, err := time.Parse(dateOnlyLayout, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

func presetDuration(value string) (time.Duration, bool) {
	switch strings.ToLower(value) {
	case "7d":
		return 7 * 24 * time.Hour, true
	case "30d":
		return 30 * 24 * time.Hour, true
	case "90d":
		return 90 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
