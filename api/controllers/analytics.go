package controllers

import (
	"net/http"

	"github.com/pulseboardhq/pulseboard-backend/api/responses"
	"github.com/pulseboardhq/pulseboard-backend/api/validators"
	"github.com/pulseboardhq/pulseboard-backend/internal/analytics"
	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/types"
	"github.com/pulseboardhq/pulseboard-backend/pkg/logger"
)

// AnalyticsSummary returns the KPI bundle for the filtered window.
func AnalyticsSummary(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := resolveFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		horizon, err := validators.ParseQueryInt(r, "retention_days", 0, 1, 3650)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inactive, err := validators.ParseQueryInt(r, "churn_days", 0, 1, 3650)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Summary(r.Context(), types.SummaryRequest{
			Filter:               filter,
			RetentionHorizonDays: horizon,
			ChurnInactiveDays:    inactive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AnalyticsEngagement returns DAU, MAU and the revenue trend series.
func AnalyticsEngagement(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := resolveFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		window, err := validators.ParseQueryInt(r, "ma_days", 0, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Engagement(r.Context(), types.EngagementRequest{
			Filter:            filter,
			MovingAverageDays: window,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AnalyticsFunnel returns the acquisition funnel table and its bottleneck.
func AnalyticsFunnel(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := resolveFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Funnel(r.Context(), types.QueryRequest{Filter: filter})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AnalyticsCohorts returns the monthly retention matrix.
func AnalyticsCohorts(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := resolveFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Cohorts(r.Context(), types.QueryRequest{Filter: filter})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AnalyticsSegments re-runs RFM clustering and returns per-user records
// plus segment profiles. k and seed default to the configured values.
func AnalyticsSegments(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := resolveFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		k, err := validators.ParseQueryInt(r, "k", 0, 1, 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		seed, err := validators.ParseQueryInt64(r, "seed", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Segments(r.Context(), types.SegmentsRequest{
			Filter:   filter,
			Clusters: k,
			Seed:     seed,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AnalyticsExperiment returns the A/B conversion comparison.
func AnalyticsExperiment(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := resolveFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Experiment(r.Context(), types.QueryRequest{Filter: filter})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AnalyticsChannels returns channel performance and device conversions.
func AnalyticsChannels(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := resolveFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Channels(r.Context(), types.QueryRequest{Filter: filter})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
