package compute

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/types"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
)

// segmentLabels is ordered by descending mean monetary value of the
// cluster. Ranks past the end of the list get generic Segment-N names.
var segmentLabels = []string{"Champions", "Loyal", "At-Risk", "Low-Value"}

const (
	kmeansRestarts = 10
	kmeansMaxIter  = 100
)

// Segments builds per-user recency/frequency/monetary features over the
// set, standardizes them to z-scores across the current population and
// partitions users with seeded k-means. Standardization is recomputed on
// every call, so segment boundaries are always relative to the population
// in scope; a fixed seed on identical input yields identical assignments.
func Segments(set []events.Event, k int, seed int64) (*types.SegmentsResponse, error) {
	if k <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cluster count must be positive")
	}
	if len(set) == 0 {
		return nil, errEmptyInput()
	}
	profiles := sortedProfiles(profileUsers(set))
	if len(profiles) < k {
		return nil, pkgerrors.
			New(pkgerrors.CodeDegenerate, "fewer distinct users than requested clusters").
			WithDetails(map[string]any{"users": len(profiles), "clusters": k})
	}

	ref := maxDay(set)
	features := make([][]float64, len(profiles))
	for i, p := range profiles {
		features[i] = []float64{
			float64(daysBetween(p.lastDay, ref)),
			float64(p.eventCount),
			p.revenue,
		}
	}
	run := runKMeans(standardize(features), k, kmeansRestarts, kmeansMaxIter, seed)

	rollups := make([]clusterRollup, k)
	for i, c := range run.assignments {
		rollups[c].users++
		rollups[c].recency += features[i][0]
		rollups[c].freq += features[i][1]
		rollups[c].monetary += features[i][2]
	}

	ranked := rankByMonetaryDesc(monetaryMeans(rollups))
	labels := make([]string, k)
	for rank, cluster := range ranked {
		labels[cluster] = segmentLabel(rank)
	}

	records := make([]types.RFMRecord, len(profiles))
	for i, p := range profiles {
		c := run.assignments[i]
		records[i] = types.RFMRecord{
			UserID:    p.id,
			Recency:   int64(features[i][0]),
			Frequency: p.eventCount,
			Monetary:  round2(p.revenue),
			Cluster:   c,
			Segment:   labels[c],
		}
	}

	segments := make([]types.SegmentProfile, 0, k)
	for rank, cluster := range ranked {
		r := rollups[cluster]
		profile := types.SegmentProfile{
			Segment:      segmentLabel(rank),
			Cluster:      cluster,
			Users:        r.users,
			TotalRevenue: round2(r.monetary),
		}
		if r.users > 0 {
			profile.AvgRecency = round1(r.recency / float64(r.users))
			profile.AvgFrequency = round1(r.freq / float64(r.users))
			profile.AvgMonetary = round1(r.monetary / float64(r.users))
		}
		segments = append(segments, profile)
	}
	return &types.SegmentsResponse{Records: records, Profiles: segments}, nil
}

// standardize z-scores each feature column across the population. A
// constant column scales to zero rather than dividing by a zero spread.
func standardize(features [][]float64) [][]float64 {
	if len(features) == 0 {
		return nil
	}
	dim := len(features[0])
	column := make([]float64, len(features))
	mean := make([]float64, dim)
	std := make([]float64, dim)
	for j := 0; j < dim; j++ {
		for i := range features {
			column[i] = features[i][j]
		}
		mean[j] = stat.Mean(column, nil)
		std[j] = stat.PopStdDev(column, nil)
	}
	out := make([][]float64, len(features))
	for i, row := range features {
		scaled := make([]float64, dim)
		for j, v := range row {
			if std[j] > 0 {
				scaled[j] = (v - mean[j]) / std[j]
			}
		}
		out[i] = scaled
	}
	return out
}

// clusterRollup accumulates per-cluster feature totals for labeling and
// the segment profile rows.
type clusterRollup struct {
	users    int64
	recency  float64
	freq     float64
	monetary float64
}

func monetaryMeans(rollups []clusterRollup) []float64 {
	means := make([]float64, len(rollups))
	for c, r := range rollups {
		if r.users == 0 {
			means[c] = math.Inf(-1)
			continue
		}
		means[c] = r.monetary / float64(r.users)
	}
	return means
}

// rankByMonetaryDesc orders cluster ids by mean monetary value, highest
// first; ties keep the lower cluster id.
func rankByMonetaryDesc(means []float64) []int {
	order := make([]int, len(means))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return means[order[i]] > means[order[j]] })
	return order
}

func segmentLabel(rank int) string {
	if rank < len(segmentLabels) {
		return segmentLabels[rank]
	}
	return fmt.Sprintf("Segment-%d", rank+1)
}
