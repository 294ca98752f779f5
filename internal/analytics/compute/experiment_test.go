package compute

import (
	"fmt"
	"testing"
	"time"

	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
	pkgerrors "github.com/pulseboardhq/pulseboard-backend/pkg/errors"
)

func abUser(user string, group enums.ExperimentGroup, buys bool, on time.Time) []events.Event {
	e := ev(user, enums.EventSignup, on)
	e.Group = group
	out := []events.Event{e}
	if buys {
		p := purchase(user, on, 25)
		p.Group = group
		out = append(out, p)
	}
	return out
}

func abFixture(nA, convA, nB, convB int) []events.Event {
	on := day(2025, time.April, 1)
	var set []events.Event
	for i := 0; i < nA; i++ {
		set = append(set, abUser(fmt.Sprintf("a%03d", i), enums.ExperimentGroupA, i < convA, on)...)
	}
	for i := 0; i < nB; i++ {
		set = append(set, abUser(fmt.Sprintf("b%03d", i), enums.ExperimentGroupB, i < convB, on)...)
	}
	return set
}

// 100 users per group, 20 vs 30 conversions. With Yates' correction the
// statistic on [[20,80],[30,70]] is exactly 2.16 and the difference is
// not significant at the 5% level.
func TestExperimentTwentyVsThirty(t *testing.T) {
	got, err := Experiment(abFixture(100, 20, 100, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.GroupAUsers != 100 || got.GroupBUsers != 100 {
		t.Fatalf("unexpected group sizes: %+v", got)
	}
	if got.GroupAConversions != 20 || got.GroupBConversions != 30 {
		t.Fatalf("unexpected conversions: %+v", got)
	}
	if got.RateA != 20.0 || got.RateB != 30.0 {
		t.Fatalf("unexpected rates: a=%v b=%v", got.RateA, got.RateB)
	}
	if got.LiftPct != 50.0 {
		t.Fatalf("expected lift 50.0, got %v", got.LiftPct)
	}
	if got.Chi2 != 2.16 {
		t.Fatalf("expected chi2 2.16, got %v", got.Chi2)
	}
	if got.PValue != 0.1416 {
		t.Fatalf("expected p-value 0.1416, got %v", got.PValue)
	}
	if got.DegreesOfFreedom != 1 {
		t.Fatalf("expected 1 degree of freedom, got %d", got.DegreesOfFreedom)
	}
	if got.Significant {
		t.Fatalf("expected non-significant result, got %+v", got)
	}
}

func TestExperimentSignificantResult(t *testing.T) {
	got, err := Experiment(abFixture(100, 10, 100, 40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Significant {
		t.Fatalf("expected significant result, got p=%v", got.PValue)
	}
	if got.Significant != (got.PValue < 0.05) {
		t.Fatalf("significance flag disagrees with p-value: %+v", got)
	}
	if got.RateA < 0 || got.RateA > 100 || got.RateB < 0 || got.RateB > 100 {
		t.Fatalf("rates out of range: %+v", got)
	}
}

func TestExperimentZeroBaselineFails(t *testing.T) {
	_, err := Experiment(abFixture(50, 0, 50, 10))
	wantCode(t, err, pkgerrors.CodeDivisionByZero)
}

func TestExperimentMissingGroupFails(t *testing.T) {
	_, err := Experiment(abFixture(50, 10, 0, 0))
	wantCode(t, err, pkgerrors.CodeDivisionByZero)
}

// Everyone converting leaves a zero margin in the contingency table, so
// expected frequencies cannot be formed.
func TestExperimentDegenerateTableFails(t *testing.T) {
	_, err := Experiment(abFixture(10, 10, 10, 10))
	wantCode(t, err, pkgerrors.CodeDivisionByZero)
}

func TestExperimentEmptyInput(t *testing.T) {
	_, err := Experiment(nil)
	wantCode(t, err, pkgerrors.CodeEmptyInput)
}
