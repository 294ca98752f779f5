package compute

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
)

// Four users with cleanly separated spend levels; with k equal to the
// population every user becomes their own cluster, so labels must line
// up with monetary rank exactly.
func rfmFixture() []events.Event {
	return []events.Event{
		ev("whale", enums.EventSignup, day(2025, time.January, 1)),
		purchase("whale", day(2025, time.March, 10), 600),
		purchase("whale", day(2025, time.March, 10), 400),
		ev("steady", enums.EventSignup, day(2025, time.January, 1)),
		purchase("steady", day(2025, time.March, 5), 300),
		ev("fading", enums.EventSignup, day(2025, time.January, 1)),
		purchase("fading", day(2025, time.January, 20), 50),
		ev("cheap", enums.EventSignup, day(2025, time.January, 1)),
		purchase("cheap", day(2025, time.February, 1), 5),
	}
}

func TestSegmentsLabelsFollowMonetaryRank(t *testing.T) {
	got, err := Segments(rfmFixture(), 4, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(got.Records))
	}

	// Records are ordered by user id.
	want := []struct {
		user     string
		recency  int64
		freq     int64
		monetary float64
		segment  string
	}{
		{user: "cheap", recency: 37, freq: 2, monetary: 5, segment: "Low-Value"},
		{user: "fading", recency: 49, freq: 2, monetary: 50, segment: "At-Risk"},
		{user: "steady", recency: 5, freq: 2, monetary: 300, segment: "Loyal"},
		{user: "whale", recency: 0, freq: 3, monetary: 1000, segment: "Champions"},
	}
	for i, w := range want {
		r := got.Records[i]
		if r.UserID != w.user || r.Recency != w.recency || r.Frequency != w.freq || r.Monetary != w.monetary {
			t.Fatalf("record %d: unexpected features %+v", i, r)
		}
		if r.Segment != w.segment {
			t.Fatalf("record %d: expected segment %s, got %s", i, w.segment, r.Segment)
		}
	}

	clusters := make(map[int]struct{})
	for _, r := range got.Records {
		clusters[r.Cluster] = struct{}{}
	}
	if len(clusters) != 4 {
		t.Fatalf("expected 4 distinct clusters, got %d", len(clusters))
	}

	// Profiles are ordered Champions first.
	if got.Profiles[0].Segment != "Champions" || got.Profiles[0].AvgMonetary != 1000.0 {
		t.Fatalf("unexpected top profile: %+v", got.Profiles[0])
	}
	for i := 1; i < len(got.Profiles); i++ {
		if got.Profiles[i].AvgMonetary > got.Profiles[i-1].AvgMonetary {
			t.Fatalf("profiles not ordered by monetary value: %+v", got.Profiles)
		}
	}
}

func TestSegmentsDeterministicForFixedSeed(t *testing.T) {
	var set []events.Event
	for i := 0; i < 12; i++ {
		user := fmt.Sprintf("u%02d", i)
		set = append(set, ev(user, enums.EventSignup, day(2025, time.January, 1+i)))
		set = append(set, ev(user, enums.EventLogin, day(2025, time.February, 1+i)))
		if i%2 == 0 {
			set = append(set, purchase(user, day(2025, time.March, 1+i), float64(10*(i+1))))
		}
	}

	first, err := Segments(set, 4, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Segments(set, 4, 42)
	if err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("segmentation is not deterministic for a fixed seed")
	}
}

func TestSegmentsGenericLabelsBeyondFour(t *testing.T) {
	set := rfmFixture()
	set = append(set,
		ev("mid", enums.EventSignup, day(2025, time.January, 1)),
		purchase("mid", day(2025, time.February, 20), 120),
	)

	got, err := Segments(set, 5, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bySegment := make(map[string]string, len(got.Records))
	for _, r := range got.Records {
		bySegment[r.UserID] = r.Segment
	}
	if bySegment["whale"] != "Champions" {
		t.Fatalf("expected whale to stay Champions, got %s", bySegment["whale"])
	}
	if bySegment["cheap"] != "Segment-5" {
		t.Fatalf("expected cheap to fall into Segment-5, got %s", bySegment["cheap"])
	}
}

func TestSegmentsDegenerateClustering(t *testing.T) {
	set := []events.Event{
		ev("u1", enums.EventSignup, day(2025, time.January, 1)),
		ev("u2", enums.EventSignup, day(2025, time.January, 2)),
		ev("u3", enums.EventSignup, day(2025, time.January, 3)),
	}
	_, err := Segments(set, 4, 42)
	wantCode(t, err, pkgerrors.CodeDegenerate)
}

func TestSegmentsRejectsBadClusterCount(t *testing.T) {
	_, err := Segments(rfmFixture(), 0, 42)
	wantCode(t, err, pkgerrors.CodeValidation)
}

func TestSegmentsEmptyInput(t *testing.T) {
	_, err := Segments(nil, 4, 42)
	wantCode(t, err, pkgerrors.CodeEmptyInput)
}

func TestStandardizeZeroSpreadColumn(t *testing.T) {
	scaled := standardize([][]float64{
		{1, 5, 2},
		{3, 5, 4},
	})
	if scaled[0][1] != 0 || scaled[1][1] != 0 {
		t.Fatalf("expected constant column to scale to zero, got %+v", scaled)
	}
	if scaled[0][0] != -1 || scaled[1][0] != 1 {
		t.Fatalf("expected unit-variance scaling, got %+v", scaled)
	}
}
