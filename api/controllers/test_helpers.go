package controllers

import (
	"context"

	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/types"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"gorm.io/gorm"
)

type testAnalyticsService struct {
	lastSummary    types.SummaryRequest
	lastEngagement types.EngagementRequest
	lastSegments   types.SegmentsRequest
	lastQuery      types.QueryRequest
	calls          int

	summary    *types.KPISummary
	engagement *types.EngagementResponse
	funnel     *types.FunnelResponse
	cohorts    *types.CohortResponse
	segments   *types.SegmentsResponse
	experiment *types.ExperimentResult
	channels   *types.ChannelsResponse
	err        error
}

func (s *testAnalyticsService) Summary(ctx context.Context, req types.SummaryRequest) (*types.KPISummary, error) {
	s.calls++
	s.lastSummary = req
	if s.err != nil {
		return nil, s.err
	}
	if s.summary == nil {
		s.summary = &types.KPISummary{}
	}
	return s.summary, nil
}

func (s *testAnalyticsService) Engagement(ctx context.Context, req types.EngagementRequest) (*types.EngagementResponse, error) {
	s.calls++
	s.lastEngagement = req
	if s.err != nil {
		return nil, s.err
	}
	if s.engagement == nil {
		s.engagement = &types.EngagementResponse{}
	}
	return s.engagement, nil
}

func (s *testAnalyticsService) Funnel(ctx context.Context, req types.QueryRequest) (*types.FunnelResponse, error) {
	s.calls++
	s.lastQuery = req
	if s.err != nil {
		return nil, s.err
	}
	if s.funnel == nil {
		s.funnel = &types.FunnelResponse{}
	}
	return s.funnel, nil
}

func (s *testAnalyticsService) Cohorts(ctx context.Context, req types.QueryRequest) (*types.CohortResponse, error) {
	s.calls++
	s.lastQuery = req
	if s.err != nil {
		return nil, s.err
	}
	if s.cohorts == nil {
		s.cohorts = &types.CohortResponse{}
	}
	return s.cohorts, nil
}

func (s *testAnalyticsService) Segments(ctx context.Context, req types.SegmentsRequest) (*types.SegmentsResponse, error) {
	s.calls++
	s.lastSegments = req
	if s.err != nil {
		return nil, s.err
	}
	if s.segments == nil {
		s.segments = &types.SegmentsResponse{}
	}
	return s.segments, nil
}

func (s *testAnalyticsService) Experiment(ctx context.Context, req types.QueryRequest) (*types.ExperimentResult, error) {
	s.calls++
	s.lastQuery = req
	if s.err != nil {
		return nil, s.err
	}
	if s.experiment == nil {
		s.experiment = &types.ExperimentResult{}
	}
	return s.experiment, nil
}

func (s *testAnalyticsService) Channels(ctx context.Context, req types.QueryRequest) (*types.ChannelsResponse, error) {
	s.calls++
	s.lastQuery = req
	if s.err != nil {
		return nil, s.err
	}
	if s.channels == nil {
		s.channels = &types.ChannelsResponse{}
	}
	return s.channels, nil
}

type testEventsRepo struct {
	inserted   []events.Event
	insertErr  error
	duplicates int64

	listed   []events.Event
	listNext string
	lastList events.ListQuery
	listErr  error
}

func (r *testEventsRepo) WithTx(tx *gorm.DB) events.Repository { return r }

func (r *testEventsRepo) InsertBatch(ctx context.Context, batch []events.Event) (int64, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.inserted = append(r.inserted, batch...)
	return int64(len(batch)) - r.duplicates, nil
}

func (r *testEventsRepo) List(ctx context.Context, q events.ListQuery) ([]events.Event, string, error) {
	r.lastList = q
	if r.listErr != nil {
		return nil, "", r.listErr
	}
	return r.listed, r.listNext, nil
}

func (r *testEventsRepo) LoadAll(ctx context.Context, f events.Filter) ([]events.Event, error) {
	return r.listed, nil
}

func (r *testEventsRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(r.listed)), nil
}
