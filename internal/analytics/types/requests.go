package types

import (
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
)

// QueryRequest carries the event filter shared by every analytics query.
type QueryRequest struct {
	Filter events.Filter
}

// SummaryRequest carries the filter plus the retention/churn horizons for
// the KPI summary. Zero horizons fall back to the configured defaults.
type SummaryRequest struct {
	Filter               events.Filter
	RetentionHorizonDays int
	ChurnInactiveDays    int
}

// EngagementRequest carries the filter plus the trailing window used for
// the DAU moving average.
type EngagementRequest struct {
	Filter            events.Filter
	MovingAverageDays int
}

// SegmentsRequest carries the filter plus the clustering knobs. Zero values
// fall back to the configured defaults (four clusters, fixed seed).
type SegmentsRequest struct {
	Filter   events.Filter
	Clusters int
	Seed     int64
}
