package analytics

import (
	"context"
	"time"

	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/compute"
	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/types"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/config"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
	"github.com/pulseboardhq/pulseboard-backend/pkg/logger"
	"github.com/pulseboardhq/pulseboard-backend/pkg/metrics"
)

// Service runs the batch analytics engines over the stored event log.
// Every call loads a fresh immutable snapshot of the filtered events, so
// results only change when the underlying log does.
type Service interface {
	// Summary returns the top-level KPI card values.
	Summary(ctx context.Context, req types.SummaryRequest) (*types.KPISummary, error)
	// Engagement returns DAU/MAU, the DAU moving average and revenue trends.
	Engagement(ctx context.Context, req types.EngagementRequest) (*types.EngagementResponse, error)
	// Funnel returns the five-step conversion table with its bottleneck.
	Funnel(ctx context.Context, req types.QueryRequest) (*types.FunnelResponse, error)
	// Cohorts returns the monthly signup-cohort retention matrix.
	Cohorts(ctx context.Context, req types.QueryRequest) (*types.CohortResponse, error)
	// Segments returns seeded RFM clusters with ranked labels.
	Segments(ctx context.Context, req types.SegmentsRequest) (*types.SegmentsResponse, error)
	// Experiment returns the A/B purchase-conversion comparison.
	Experiment(ctx context.Context, req types.QueryRequest) (*types.ExperimentResult, error)
	// Channels returns acquisition channel and device breakdowns.
	Channels(ctx context.Context, req types.QueryRequest) (*types.ChannelsResponse, error)
}

type service struct {
	repo    events.Repository
	cfg     config.AnalyticsConfig
	log     *logger.Logger
	compute *metrics.ComputeMetrics
}

// NewService builds the analytics service on top of the events repository.
func NewService(repo events.Repository, cfg config.AnalyticsConfig, log *logger.Logger, m *metrics.ComputeMetrics) Service {
	return &service{repo: repo, cfg: cfg, log: log, compute: m}
}

func (s *service) Summary(ctx context.Context, req types.SummaryRequest) (*types.KPISummary, error) {
	horizon := orDefault(req.RetentionHorizonDays, s.cfg.RetentionHorizonDays)
	inactive := orDefault(req.ChurnInactiveDays, s.cfg.ChurnInactiveDays)
	var out *types.KPISummary
	err := s.run(ctx, "kpi_summary", req.Filter, func(set []events.Event) error {
		res, err := compute.Summary(set, horizon, inactive)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Engagement(ctx context.Context, req types.EngagementRequest) (*types.EngagementResponse, error) {
	window := orDefault(req.MovingAverageDays, s.cfg.MovingAverageDays)
	var out *types.EngagementResponse
	err := s.run(ctx, "engagement", req.Filter, func(set []events.Event) error {
		dau, err := compute.DailyActiveUsers(set)
		if err != nil {
			return err
		}
		mau, err := compute.MonthlyActiveUsers(set)
		if err != nil {
			return err
		}
		daily, monthly, err := compute.RevenueTrend(set)
		if err != nil {
			return err
		}
		avg, err := compute.MovingAverage(dau, window)
		if err != nil {
			return err
		}
		out = &types.EngagementResponse{
			DAU:            dau,
			MAU:            mau,
			DAUMovingAvg:   avg,
			DailyRevenue:   daily,
			MonthlyRevenue: monthly,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Funnel(ctx context.Context, req types.QueryRequest) (*types.FunnelResponse, error) {
	var out *types.FunnelResponse
	err := s.run(ctx, "funnel", req.Filter, func(set []events.Event) error {
		res, err := compute.Funnel(set)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Cohorts(ctx context.Context, req types.QueryRequest) (*types.CohortResponse, error) {
	var out *types.CohortResponse
	err := s.run(ctx, "cohorts", req.Filter, func(set []events.Event) error {
		res, err := compute.CohortMatrix(set)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Segments(ctx context.Context, req types.SegmentsRequest) (*types.SegmentsResponse, error) {
	k := orDefault(req.Clusters, s.cfg.SegmentCount)
	seed := req.Seed
	if seed == 0 {
		seed = int64(s.cfg.SegmentSeed)
	}
	var out *types.SegmentsResponse
	err := s.run(ctx, "segments", req.Filter, func(set []events.Event) error {
		res, err := compute.Segments(set, k, seed)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Experiment(ctx context.Context, req types.QueryRequest) (*types.ExperimentResult, error) {
	var out *types.ExperimentResult
	err := s.run(ctx, "experiment", req.Filter, func(set []events.Event) error {
		res, err := compute.Experiment(set)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Channels(ctx context.Context, req types.QueryRequest) (*types.ChannelsResponse, error) {
	var out *types.ChannelsResponse
	err := s.run(ctx, "channels", req.Filter, func(set []events.Event) error {
		channels, err := compute.ChannelPerformance(set)
		if err != nil {
			return err
		}
		devices, err := compute.DeviceConversions(set)
		if err != nil {
			return err
		}
		out = &types.ChannelsResponse{Channels: channels, Devices: devices}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// run loads the filtered snapshot, executes the engine and records
// duration, dataset size and outcome for the named metric.
func (s *service) run(ctx context.Context, metric string, f events.Filter, fn func(set []events.Event) error) error {
	start := time.Now()
	set, err := s.repo.LoadAll(ctx, f)
	if err != nil {
		s.compute.IncFailure(metric, string(pkgerrors.CodeDependency))
		s.log.Error(ctx, "loading events for "+metric+" failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading events")
	}
	ctx = s.log.WithDataset(ctx, len(set))

	err = fn(set)
	s.compute.ObserveCompute(metric, time.Since(start), len(set))
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.compute.IncFailure(metric, string(typed.Code()))
			s.log.Warn(s.log.WithField(ctx, "code", string(typed.Code())), metric+" rejected")
		} else {
			s.compute.IncFailure(metric, string(pkgerrors.CodeInternal))
			s.log.Error(ctx, metric+" failed", err)
		}
		return err
	}
	s.compute.IncSuccess(metric)
	s.log.Info(ctx, metric+" computed")
	return nil
}

func orDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
