package compute

import (
	"sort"

	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/types"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
)

// DailyActiveUsers counts distinct users with any activity per day,
// ordered by date.
func DailyActiveUsers(set []events.Event) ([]types.TimeSeriesPoint, error) {
	if len(set) == 0 {
		return nil, errEmptyInput()
	}
	perDay := make(map[string]map[string]struct{})
	for _, e := range set {
		key := e.Day().Format(dayLayout)
		users, ok := perDay[key]
		if !ok {
			users = make(map[string]struct{})
			perDay[key] = users
		}
		users[e.UserID] = struct{}{}
	}
	return distinctSeries(perDay), nil
}

// MonthlyActiveUsers counts distinct users with any activity per calendar
// month. The DAU/MAU ratio is the usual stickiness read.
func MonthlyActiveUsers(set []events.Event) ([]types.TimeSeriesPoint, error) {
	if len(set) == 0 {
		return nil, errEmptyInput()
	}
	perMonth := make(map[string]map[string]struct{})
	for _, e := range set {
		key := e.Month().Format(monthLayout)
		users, ok := perMonth[key]
		if !ok {
			users = make(map[string]struct{})
			perMonth[key] = users
		}
		users[e.UserID] = struct{}{}
	}
	return distinctSeries(perMonth), nil
}

// RevenueTrend sums purchase revenue per day and per calendar month. Both
// series are empty when the set holds no purchases.
func RevenueTrend(set []events.Event) (daily, monthly []types.RevenuePoint, err error) {
	if len(set) == 0 {
		return nil, nil, errEmptyInput()
	}
	perDay := make(map[string]float64)
	perMonth := make(map[string]float64)
	for _, e := range set {
		if e.Type != enums.EventPurchase {
			continue
		}
		perDay[e.Day().Format(dayLayout)] += e.Revenue
		perMonth[e.Month().Format(monthLayout)] += e.Revenue
	}
	return revenueSeries(perDay), revenueSeries(perMonth), nil
}

// ConversionRate is the share of distinct users with at least one
// purchase, as a percentage of all distinct users.
func ConversionRate(set []events.Event) (float64, error) {
	if len(set) == 0 {
		return 0, errEmptyInput()
	}
	byUser := profileUsers(set)
	converted := 0
	for _, p := range byUser {
		if p.purchased {
			converted++
		}
	}
	return round2(float64(converted) / float64(len(byUser)) * 100), nil
}

// RetentionRate is the share of users whose activity span reaches the
// horizon: last event at least horizonDays after their first.
func RetentionRate(set []events.Event, horizonDays int) (float64, error) {
	if horizonDays <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "retention horizon must be positive")
	}
	if len(set) == 0 {
		return 0, errEmptyInput()
	}
	byUser := profileUsers(set)
	retained := 0
	for _, p := range byUser {
		if daysBetween(p.firstDay, p.lastDay) >= horizonDays {
			retained++
		}
	}
	return round2(float64(retained) / float64(len(byUser)) * 100), nil
}

// ChurnRate is the share of users with no activity in the trailing
// inactiveDays of the set, measured against its latest event date.
func ChurnRate(set []events.Event, inactiveDays int) (float64, error) {
	if inactiveDays <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "churn horizon must be positive")
	}
	if len(set) == 0 {
		return 0, errEmptyInput()
	}
	ref := maxDay(set)
	byUser := profileUsers(set)
	churned := 0
	for _, p := range byUser {
		if daysBetween(p.lastDay, ref) >= inactiveDays {
			churned++
		}
	}
	return round2(float64(churned) / float64(len(byUser)) * 100), nil
}

// ARPU is total purchase revenue divided by all distinct users, paying
// or not.
func ARPU(set []events.Event) (float64, error) {
	if len(set) == 0 {
		return 0, errEmptyInput()
	}
	byUser := profileUsers(set)
	var revenue float64
	for _, p := range byUser {
		revenue += p.revenue
	}
	return round2(revenue / float64(len(byUser))), nil
}

// Summary aggregates the top-level KPIs into a single payload for
// dashboard cards.
func Summary(set []events.Event, horizonDays, inactiveDays int) (*types.KPISummary, error) {
	if len(set) == 0 {
		return nil, errEmptyInput()
	}
	conversion, err := ConversionRate(set)
	if err != nil {
		return nil, err
	}
	retention, err := RetentionRate(set, horizonDays)
	if err != nil {
		return nil, err
	}
	churn, err := ChurnRate(set, inactiveDays)
	if err != nil {
		return nil, err
	}
	arpu, err := ARPU(set)
	if err != nil {
		return nil, err
	}
	byUser := profileUsers(set)
	var revenue float64
	for _, p := range byUser {
		revenue += p.revenue
	}
	return &types.KPISummary{
		TotalUsers:       int64(len(byUser)),
		TotalEvents:      int64(len(set)),
		TotalRevenue:     round2(revenue),
		ConversionRate:   conversion,
		RetentionRate:    retention,
		ChurnRate:        churn,
		ARPU:             arpu,
		RetentionHorizon: horizonDays,
		ChurnHorizon:     inactiveDays,
	}, nil
}

// MovingAverage smooths a series with a trailing mean over up to window
// points; the head of the series averages over what is available.
func MovingAverage(series []types.TimeSeriesPoint, window int) ([]types.RevenuePoint, error) {
	if window <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "moving average window must be positive")
	}
	out := make([]types.RevenuePoint, len(series))
	var sum float64
	for i, pt := range series {
		sum += float64(pt.Value)
		if i >= window {
			sum -= float64(series[i-window].Value)
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = types.RevenuePoint{Date: pt.Date, Value: round2(sum / float64(n))}
	}
	return out, nil
}

func distinctSeries(buckets map[string]map[string]struct{}) []types.TimeSeriesPoint {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.TimeSeriesPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.TimeSeriesPoint{Date: k, Value: int64(len(buckets[k]))})
	}
	return out
}

func revenueSeries(buckets map[string]float64) []types.RevenuePoint {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.RevenuePoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.RevenuePoint{Date: k, Value: round2(buckets[k])})
	}
	return out
}
