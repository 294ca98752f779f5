package types

// TimeSeriesPoint describes a single date/value pair such as one day of DAU.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// RevenuePoint is a date/value pair whose value is a monetary or averaged amount.
type RevenuePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// KPISummary bundles the top-level product KPIs for dashboard cards.
type KPISummary struct {
	TotalUsers       int64   `json:"total_users"`
	TotalEvents      int64   `json:"total_events"`
	TotalRevenue     float64 `json:"total_revenue"`
	ConversionRate   float64 `json:"conversion_rate"`
	RetentionRate    float64 `json:"retention_rate"`
	ChurnRate        float64 `json:"churn_rate"`
	ARPU             float64 `json:"arpu"`
	RetentionHorizon int     `json:"retention_horizon_days"`
	ChurnHorizon     int     `json:"churn_inactive_days"`
}

// EngagementResponse carries the activity and revenue series for trend charts.
type EngagementResponse struct {
	DAU            []TimeSeriesPoint `json:"dau"`
	MAU            []TimeSeriesPoint `json:"mau"`
	DAUMovingAvg   []RevenuePoint    `json:"dau_moving_avg"`
	DailyRevenue   []RevenuePoint    `json:"daily_revenue"`
	MonthlyRevenue []RevenuePoint    `json:"monthly_revenue"`
}

// FunnelStep is one row of the funnel table, ordered by lifecycle stage.
type FunnelStep struct {
	Step               string  `json:"step"`
	Users              int64   `json:"users"`
	ConversionFromPrev float64 `json:"conversion_from_prev"`
	ConversionFromTop  float64 `json:"conversion_from_top"`
	DropoffPct         float64 `json:"dropoff_pct"`
}

// FunnelBottleneck names the step losing the most users step-over-step.
type FunnelBottleneck struct {
	Step       string  `json:"step"`
	Index      int     `json:"index"`
	DropoffPct float64 `json:"dropoff_pct"`
}

// FunnelResponse is the funnel table plus the bottleneck call-out.
type FunnelResponse struct {
	Steps      []FunnelStep     `json:"steps"`
	Bottleneck FunnelBottleneck `json:"bottleneck"`
}

// CohortRow is one signup cohort. Retention is keyed by period ("M0", "M1", …)
// and is sparse: an absent period means no data, not zero retention.
type CohortRow struct {
	Cohort    string             `json:"cohort"`
	Size      int64              `json:"size"`
	Retention map[string]float64 `json:"retention"`
}

// CohortResponse is the monthly retention matrix, rows ordered by cohort month.
type CohortResponse struct {
	Cohorts []CohortRow `json:"cohorts"`
}

// RFMRecord is one user's recency/frequency/monetary profile with its
// assigned cluster and human label.
type RFMRecord struct {
	UserID    string  `json:"user_id"`
	Recency   int64   `json:"recency"`
	Frequency int64   `json:"frequency"`
	Monetary  float64 `json:"monetary"`
	Cluster   int     `json:"cluster"`
	Segment   string  `json:"segment"`
}

// SegmentProfile summarizes one cluster, ordered by mean monetary value.
type SegmentProfile struct {
	Segment      string  `json:"segment"`
	Cluster      int     `json:"cluster"`
	Users        int64   `json:"users"`
	AvgRecency   float64 `json:"avg_recency_days"`
	AvgFrequency float64 `json:"avg_frequency"`
	AvgMonetary  float64 `json:"avg_monetary"`
	TotalRevenue float64 `json:"total_revenue"`
}

// SegmentsResponse carries per-user RFM records plus per-segment rollups.
type SegmentsResponse struct {
	Records  []RFMRecord      `json:"records"`
	Profiles []SegmentProfile `json:"profiles"`
}

// ExperimentResult reports the A/B purchase-conversion comparison.
type ExperimentResult struct {
	GroupAUsers       int64   `json:"group_a_users"`
	GroupBUsers       int64   `json:"group_b_users"`
	GroupAConversions int64   `json:"group_a_conversions"`
	GroupBConversions int64   `json:"group_b_conversions"`
	RateA             float64 `json:"rate_a"`
	RateB             float64 `json:"rate_b"`
	LiftPct           float64 `json:"lift_pct"`
	Chi2              float64 `json:"chi2"`
	PValue            float64 `json:"p_value"`
	DegreesOfFreedom  int     `json:"degrees_of_freedom"`
	Significant       bool    `json:"significant"`
}

// ChannelStats is the per-acquisition-channel performance row.
type ChannelStats struct {
	Channel        string  `json:"channel"`
	Users          int64   `json:"users"`
	Conversions    int64   `json:"conversions"`
	Revenue        float64 `json:"revenue"`
	ConversionRate float64 `json:"conversion_rate"`
	ARPU           float64 `json:"arpu"`
}

// DeviceStats is the per-device conversion row.
type DeviceStats struct {
	Device         string  `json:"device"`
	Users          int64   `json:"users"`
	Conversions    int64   `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// ChannelsResponse bundles the channel and device breakdowns.
type ChannelsResponse struct {
	Channels []ChannelStats `json:"channels"`
	Devices  []DeviceStats  `json:"devices"`
}
