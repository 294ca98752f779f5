package compute

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/types"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ev(user string, kind enums.EventType, on time.Time) events.Event {
	return events.Event{
		ID:         uuid.New(),
		UserID:     user,
		Type:       kind,
		OccurredOn: on,
		Device:     enums.DeviceDesktop,
		Channel:    enums.ChannelOrganic,
		Group:      enums.ExperimentGroupA,
	}
}

func purchase(user string, on time.Time, revenue float64) events.Event {
	e := ev(user, enums.EventPurchase, on)
	e.Revenue = revenue
	return e
}

func wantCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s", code, typed.Code())
	}
}

func TestDailyActiveUsers(t *testing.T) {
	set := []events.Event{
		ev("u1", enums.EventSignup, day(2025, time.January, 1)),
		ev("u2", enums.EventSignup, day(2025, time.January, 1)),
		ev("u1", enums.EventLogin, day(2025, time.January, 1)),
		ev("u1", enums.EventLogin, day(2025, time.January, 2)),
	}

	got, err := DailyActiveUsers(set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []types.TimeSeriesPoint{
		{Date: "2025-01-01", Value: 2},
		{Date: "2025-01-02", Value: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected series: %+v", got)
	}
}

func TestMonthlyActiveUsers(t *testing.T) {
	set := []events.Event{
		ev("u1", enums.EventSignup, day(2025, time.January, 3)),
		ev("u2", enums.EventSignup, day(2025, time.January, 20)),
		ev("u1", enums.EventLogin, day(2025, time.February, 1)),
	}

	got, err := MonthlyActiveUsers(set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []types.TimeSeriesPoint{
		{Date: "2025-01", Value: 2},
		{Date: "2025-02", Value: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected series: %+v", got)
	}
}

func TestRevenueTrendSumsPurchasesOnly(t *testing.T) {
	set := []events.Event{
		ev("u1", enums.EventLogin, day(2025, time.January, 15)),
		purchase("u1", day(2025, time.January, 15), 10.50),
		purchase("u1", day(2025, time.January, 15), 4.50),
		purchase("u2", day(2025, time.February, 1), 20),
	}

	daily, monthly, err := RevenueTrend(set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDaily := []types.RevenuePoint{
		{Date: "2025-01-15", Value: 15},
		{Date: "2025-02-01", Value: 20},
	}
	wantMonthly := []types.RevenuePoint{
		{Date: "2025-01", Value: 15},
		{Date: "2025-02", Value: 20},
	}
	if !reflect.DeepEqual(daily, wantDaily) {
		t.Fatalf("unexpected daily trend: %+v", daily)
	}
	if !reflect.DeepEqual(monthly, wantMonthly) {
		t.Fatalf("unexpected monthly trend: %+v", monthly)
	}
}

func TestRevenueTrendWithoutPurchases(t *testing.T) {
	set := []events.Event{ev("u1", enums.EventLogin, day(2025, time.January, 1))}

	daily, monthly, err := RevenueTrend(set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(daily) != 0 || len(monthly) != 0 {
		t.Fatalf("expected empty trends, got %d daily / %d monthly", len(daily), len(monthly))
	}
}

// Three users with nothing but a signup each: no conversions, no
// retention, and no churn because the reference date is their own
// signup day.
func TestRatesAllZeroForSignupOnlyUsers(t *testing.T) {
	set := []events.Event{
		ev("u1", enums.EventSignup, day(2025, time.March, 1)),
		ev("u2", enums.EventSignup, day(2025, time.March, 1)),
		ev("u3", enums.EventSignup, day(2025, time.March, 1)),
	}

	conversion, err := ConversionRate(set)
	if err != nil {
		t.Fatalf("conversion rate: %v", err)
	}
	retention, err := RetentionRate(set, 30)
	if err != nil {
		t.Fatalf("retention rate: %v", err)
	}
	churn, err := ChurnRate(set, 60)
	if err != nil {
		t.Fatalf("churn rate: %v", err)
	}
	if conversion != 0 || retention != 0 || churn != 0 {
		t.Fatalf("expected all-zero rates, got conversion=%v retention=%v churn=%v", conversion, retention, churn)
	}
}

func TestConversionRateAndARPU(t *testing.T) {
	set := []events.Event{
		ev("u1", enums.EventSignup, day(2025, time.March, 1)),
		purchase("u1", day(2025, time.March, 1), 100),
		ev("u2", enums.EventSignup, day(2025, time.March, 1)),
	}

	conversion, err := ConversionRate(set)
	if err != nil {
		t.Fatalf("conversion rate: %v", err)
	}
	if conversion != 50.0 {
		t.Fatalf("expected conversion 50.0, got %v", conversion)
	}
	arpu, err := ARPU(set)
	if err != nil {
		t.Fatalf("arpu: %v", err)
	}
	if arpu != 50.0 {
		t.Fatalf("expected arpu 50.0, got %v", arpu)
	}
}

func TestRetentionRateHorizonBoundary(t *testing.T) {
	set := []events.Event{
		ev("u1", enums.EventSignup, day(2025, time.January, 1)),
		ev("u1", enums.EventLogin, day(2025, time.January, 31)), // gap of exactly 30 days
		ev("u2", enums.EventSignup, day(2025, time.January, 1)),
		ev("u2", enums.EventLogin, day(2025, time.January, 30)),
	}

	got, err := RetentionRate(set, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 50.0 {
		t.Fatalf("expected retention 50.0, got %v", got)
	}
}

func TestChurnRateAgainstDatasetMaxDate(t *testing.T) {
	set := []events.Event{
		ev("active", enums.EventSignup, day(2025, time.January, 1)),
		ev("active", enums.EventLogin, day(2025, time.April, 1)),
		ev("idle", enums.EventSignup, day(2025, time.January, 1)),
		ev("idle", enums.EventLogin, day(2025, time.January, 31)), // 60 days before April 1
	}

	got, err := ChurnRate(set, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 50.0 {
		t.Fatalf("expected churn 50.0, got %v", got)
	}
}

func TestSummaryBundlesKPIs(t *testing.T) {
	set := []events.Event{
		ev("u1", enums.EventSignup, day(2025, time.March, 1)),
		purchase("u1", day(2025, time.March, 1), 100),
		ev("u2", enums.EventSignup, day(2025, time.March, 1)),
	}

	got, err := Summary(set, 30, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &types.KPISummary{
		TotalUsers:       2,
		TotalEvents:      3,
		TotalRevenue:     100,
		ConversionRate:   50,
		RetentionRate:    0,
		ChurnRate:        0,
		ARPU:             50,
		RetentionHorizon: 30,
		ChurnHorizon:     60,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected summary: %+v", got)
	}

	again, err := Summary(set, 30, 60)
	if err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("summary is not idempotent: %+v vs %+v", got, again)
	}
}

func TestMovingAverage(t *testing.T) {
	series := []types.TimeSeriesPoint{
		{Date: "2025-01-01", Value: 2},
		{Date: "2025-01-02", Value: 4},
		{Date: "2025-01-03", Value: 6},
	}

	got, err := MovingAverage(series, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []types.RevenuePoint{
		{Date: "2025-01-01", Value: 2},
		{Date: "2025-01-02", Value: 3},
		{Date: "2025-01-03", Value: 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected moving average: %+v", got)
	}

	if _, err := MovingAverage(series, 0); err == nil {
		t.Fatalf("expected validation error for zero window")
	}
}

func TestKPIEmptyInput(t *testing.T) {
	if _, err := DailyActiveUsers(nil); err == nil {
		t.Fatalf("expected empty input error")
	} else {
		wantCode(t, err, pkgerrors.CodeEmptyInput)
	}
	if _, err := ConversionRate(nil); err == nil {
		t.Fatalf("expected empty input error")
	} else {
		wantCode(t, err, pkgerrors.CodeEmptyInput)
	}
	if _, err := Summary(nil, 30, 60); err == nil {
		t.Fatalf("expected empty input error")
	} else {
		wantCode(t, err, pkgerrors.CodeEmptyInput)
	}
}

func TestRetentionRateRejectsBadHorizon(t *testing.T) {
	set := []events.Event{ev("u1", enums.EventSignup, day(2025, time.January, 1))}
	_, err := RetentionRate(set, 0)
	wantCode(t, err, pkgerrors.CodeValidation)
	_, err = ChurnRate(set, -1)
	wantCode(t, err, pkgerrors.CodeValidation)
}
