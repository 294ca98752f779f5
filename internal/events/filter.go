package events

import (
	"time"

	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
)

// Filter narrows the event collection before a computation runs. Zero
// values mean "no restriction"; From/To are inclusive date bounds.
type Filter struct {
	From     time.Time
	To       time.Time
	Channels []enums.AcquisitionChannel
	Devices  []enums.DeviceType
	Group    enums.ExperimentGroup
}

// IsZero reports whether the filter restricts nothing.
func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() &&
		len(f.Channels) == 0 && len(f.Devices) == 0 && f.Group == ""
}

// Match reports whether the event passes every restriction.
func (f Filter) Match(e Event) bool {
	day := e.Day()
	if !f.From.IsZero() && day.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && day.After(f.To) {
		return false
	}
	if len(f.Channels) > 0 && !containsChannel(f.Channels, e.Channel) {
		return false
	}
	if len(f.Devices) > 0 && !containsDevice(f.Devices, e.Device) {
		return false
	}
	if f.Group != "" && e.Group != f.Group {
		return false
	}
	return true
}

// Apply returns the events passing the filter, preserving order.
func (f Filter) Apply(batch []Event) []Event {
	if f.IsZero() {
		return batch
	}
	out := make([]Event, 0, len(batch))
	for _, e := range batch {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

func containsChannel(list []enums.AcquisitionChannel, c enums.AcquisitionChannel) bool {
	for _, candidate := range list {
		if candidate == c {
			return true
		}
	}
	return false
}

func containsDevice(list []enums.DeviceType, d enums.DeviceType) bool {
	for _, candidate := range list {
		if candidate == d {
			return true
		}
	}
	return false
}
