package compute

import (
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// parallelAssignThreshold is the point count above which the assignment
// step fans out across goroutines.
const parallelAssignThreshold = 2048

// kmeansResult is one converged clustering run.
type kmeansResult struct {
	assignments []int
	centroids   [][]float64
	inertia     float64
}

// runKMeans executes Lloyd's algorithm restarts times, each from a
// deterministically seeded initialization, and keeps the run with the
// lowest within-cluster sum of squares. Ties keep the earliest run, so a
// fixed seed always yields the same partition.
func runKMeans(points [][]float64, k, restarts, maxIter int, seed int64) kmeansResult {
	best := kmeansResult{inertia: math.Inf(1)}
	for r := 0; r < restarts; r++ {
		run := lloyd(points, k, maxIter, rand.New(rand.NewSource(seed+int64(r))))
		if run.inertia < best.inertia {
			best = run
		}
	}
	return best
}

func lloyd(points [][]float64, k, maxIter int, rng *rand.Rand) kmeansResult {
	dim := len(points[0])
	centroids := make([][]float64, k)
	for i, idx := range rng.Perm(len(points))[:k] {
		centroids[i] = append([]float64(nil), points[idx]...)
	}
	assignments := make([]int, len(points))
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		if !assign(points, centroids, assignments) {
			break
		}

		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, dim)
		}
		for i, p := range points {
			counts[assignments[i]]++
			floats.Add(next[assignments[i]], p)
		}
		var empties []int
		for c := range next {
			if counts[c] == 0 {
				empties = append(empties, c)
				continue
			}
			floats.Scale(1/float64(counts[c]), next[c])
		}
		if len(empties) > 0 {
			// Reseed empty clusters at the points farthest from their
			// current centroid, one distinct point per cluster.
			for j, idx := range farthestPoints(points, centroids, assignments, len(empties)) {
				next[empties[j]] = append([]float64(nil), points[idx]...)
			}
		}
		centroids = next
	}

	var inertia float64
	for i, p := range points {
		d := floats.Distance(p, centroids[assignments[i]], 2)
		inertia += d * d
	}
	return kmeansResult{assignments: assignments, centroids: centroids, inertia: inertia}
}

// assign recomputes every point's nearest centroid and reports whether
// anything moved. Large point sets fan out across goroutines over
// disjoint index ranges; each assignment depends only on the centroids,
// so the result matches the serial pass exactly.
func assign(points, centroids [][]float64, assignments []int) bool {
	if len(points) < parallelAssignThreshold {
		return assignRange(points, centroids, assignments, 0, len(points))
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(points) {
		workers = len(points)
	}
	chunk := (len(points) + workers - 1) / workers

	moved := make([]bool, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= len(points) {
			break
		}
		hi := lo + chunk
		if hi > len(points) {
			hi = len(points)
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			moved[w] = assignRange(points, centroids, assignments, lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()

	for _, m := range moved {
		if m {
			return true
		}
	}
	return false
}

func assignRange(points, centroids [][]float64, assignments []int, lo, hi int) bool {
	changed := false
	for i := lo; i < hi; i++ {
		if c := nearestCentroid(points[i], centroids); c != assignments[i] {
			assignments[i] = c
			changed = true
		}
	}
	return changed
}

// nearestCentroid picks the centroid with the smallest Euclidean
// distance; ties keep the lowest cluster index.
func nearestCentroid(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(p, centroid, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// farthestPoints returns the indices of the n points with the largest
// distance to their assigned centroid, farthest first.
func farthestPoints(points, centroids [][]float64, assignments []int, n int) []int {
	type candidate struct {
		idx  int
		dist float64
	}
	candidates := make([]candidate, len(points))
	for i, p := range points {
		candidates[i] = candidate{idx: i, dist: floats.Distance(p, centroids[assignments[i]], 2)}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist > candidates[j].dist
		}
		return candidates[i].idx < candidates[j].idx
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[i].idx
	}
	return out
}
