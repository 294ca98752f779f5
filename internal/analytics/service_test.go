package analytics

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/types"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/config"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
	"github.com/pulseboardhq/pulseboard-backend/pkg/logger"
	"github.com/pulseboardhq/pulseboard-backend/pkg/metrics"
	"gorm.io/gorm"
)

type fakeRepo struct {
	set        []events.Event
	err        error
	lastFilter events.Filter
}

func (f *fakeRepo) WithTx(tx *gorm.DB) events.Repository { return f }

func (f *fakeRepo) InsertBatch(ctx context.Context, batch []events.Event) (int64, error) {
	return int64(len(batch)), nil
}

func (f *fakeRepo) List(ctx context.Context, q events.ListQuery) ([]events.Event, string, error) {
	return nil, "", nil
}

func (f *fakeRepo) LoadAll(ctx context.Context, flt events.Filter) ([]events.Event, error) {
	f.lastFilter = flt
	if f.err != nil {
		return nil, f.err
	}
	return f.set, nil
}

func (f *fakeRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.set)), nil
}

func newTestService(repo events.Repository) Service {
	cfg := config.AnalyticsConfig{
		RetentionHorizonDays: 30,
		ChurnInactiveDays:    60,
		SegmentCount:         4,
		SegmentSeed:          42,
		MovingAverageDays:    7,
	}
	log := logger.New(logger.Options{ServiceName: "pulseboard-test", Output: io.Discard})
	return NewService(repo, cfg, log, metrics.NewComputeMetrics(nil))
}

func sampleEvent(user string, kind enums.EventType, on time.Time, revenue float64) events.Event {
	return events.Event{
		ID:         uuid.New(),
		UserID:     user,
		Type:       kind,
		OccurredOn: on,
		Revenue:    revenue,
		Device:     enums.DeviceDesktop,
		Channel:    enums.ChannelOrganic,
		Group:      enums.ExperimentGroupA,
	}
}

func TestServiceSummaryComputesFromRepository(t *testing.T) {
	on := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{set: []events.Event{
		sampleEvent("u1", enums.EventSignup, on, 0),
		sampleEvent("u1", enums.EventPurchase, on, 100),
		sampleEvent("u2", enums.EventSignup, on, 0),
	}}
	srv := newTestService(repo)

	got, err := srv.Summary(context.Background(), types.SummaryRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalUsers != 2 || got.TotalEvents != 3 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if got.ConversionRate != 50.0 || got.ARPU != 50.0 {
		t.Fatalf("unexpected rates: %+v", got)
	}
	if got.RetentionHorizon != 30 || got.ChurnHorizon != 60 {
		t.Fatalf("expected configured horizons, got %+v", got)
	}
}

func TestServiceForwardsFilter(t *testing.T) {
	on := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{set: []events.Event{sampleEvent("u1", enums.EventSignup, on, 0)}}
	srv := newTestService(repo)

	from := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	req := types.SummaryRequest{Filter: events.Filter{From: from, Channels: []enums.AcquisitionChannel{enums.ChannelEmail}}}
	if _, err := srv.Summary(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.lastFilter.From.Equal(from) {
		t.Fatalf("filter not forwarded: %+v", repo.lastFilter)
	}
	if len(repo.lastFilter.Channels) != 1 || repo.lastFilter.Channels[0] != enums.ChannelEmail {
		t.Fatalf("channel filter not forwarded: %+v", repo.lastFilter)
	}
}

func TestServiceEmptyDataset(t *testing.T) {
	srv := newTestService(&fakeRepo{})

	_, err := srv.Funnel(context.Background(), types.QueryRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeEmptyInput {
		t.Fatalf("expected empty input error, got %v", err)
	}
}

func TestServiceWrapsRepositoryError(t *testing.T) {
	srv := newTestService(&fakeRepo{err: errors.New("connection refused")})

	_, err := srv.Summary(context.Background(), types.SummaryRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestServiceSegmentsUsesConfiguredDefaults(t *testing.T) {
	on := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	var set []events.Event
	amounts := []float64{1000, 300, 50, 5}
	users := []string{"whale", "steady", "fading", "cheap"}
	for i, u := range users {
		set = append(set,
			sampleEvent(u, enums.EventSignup, on, 0),
			sampleEvent(u, enums.EventPurchase, on.AddDate(0, 0, i), amounts[i]),
		)
	}
	srv := newTestService(&fakeRepo{set: set})

	got, err := srv.Segments(context.Background(), types.SegmentsRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Profiles) != 4 {
		t.Fatalf("expected 4 profiles from the configured cluster count, got %d", len(got.Profiles))
	}
	if got.Profiles[0].Segment != "Champions" {
		t.Fatalf("expected Champions first, got %+v", got.Profiles[0])
	}
}

func TestServiceEngagementBundlesSeries(t *testing.T) {
	on := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{set: []events.Event{
		sampleEvent("u1", enums.EventSignup, on, 0),
		sampleEvent("u1", enums.EventPurchase, on.AddDate(0, 0, 1), 40),
		sampleEvent("u2", enums.EventSignup, on.AddDate(0, 0, 1), 0),
	}}
	srv := newTestService(repo)

	got, err := srv.Engagement(context.Background(), types.EngagementRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.DAU) != 2 || len(got.MAU) != 1 {
		t.Fatalf("unexpected activity series: %+v", got)
	}
	if len(got.DAUMovingAvg) != len(got.DAU) {
		t.Fatalf("moving average should track the DAU series: %+v", got.DAUMovingAvg)
	}
	if len(got.DailyRevenue) != 1 || got.DailyRevenue[0].Value != 40 {
		t.Fatalf("unexpected revenue series: %+v", got.DailyRevenue)
	}
}
