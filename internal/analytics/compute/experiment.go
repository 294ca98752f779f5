package compute

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/types"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
)

// significanceLevel is the fixed threshold for the experiment verdict.
const significanceLevel = 0.05

// Experiment compares purchase conversion between groups A and B with a
// chi-square test of independence on the 2×2 contingency table, applying
// Yates' continuity correction as is standard at one degree of freedom.
// A user with events in both groups counts once per group. Lift is
// relative to group A, so a zero A-side conversion rate makes lift
// undefined and the call fails instead of emitting infinity.
func Experiment(set []events.Event) (*types.ExperimentResult, error) {
	if len(set) == 0 {
		return nil, errEmptyInput()
	}

	type memberKey struct {
		user  string
		group enums.ExperimentGroup
	}
	converted := make(map[memberKey]bool)
	for _, e := range set {
		key := memberKey{user: e.UserID, group: e.Group}
		converted[key] = converted[key] || e.Type == enums.EventPurchase
	}

	var nA, nB, convA, convB int64
	for key, didConvert := range converted {
		switch key.group {
		case enums.ExperimentGroupA:
			nA++
			if didConvert {
				convA++
			}
		case enums.ExperimentGroupB:
			nB++
			if didConvert {
				convB++
			}
		}
	}
	if nA == 0 || nB == 0 {
		missing := enums.ExperimentGroupA
		if nA > 0 {
			missing = enums.ExperimentGroupB
		}
		return nil, errDivisionByZero("experiment group has no users", map[string]any{
			"group": missing.String(),
		})
	}

	rateA := float64(convA) / float64(nA)
	rateB := float64(convB) / float64(nB)
	if rateA == 0 {
		return nil, errDivisionByZero("group A conversion rate is zero, lift is undefined", map[string]any{
			"group_a_users": nA,
		})
	}
	lift := (rateB - rateA) / rateA * 100

	chi2, pValue, err := chiSquare2x2(convA, nA-convA, convB, nB-convB)
	if err != nil {
		return nil, err
	}

	return &types.ExperimentResult{
		GroupAUsers:       nA,
		GroupBUsers:       nB,
		GroupAConversions: convA,
		GroupBConversions: convB,
		RateA:             round2(rateA * 100),
		RateB:             round2(rateB * 100),
		LiftPct:           round2(lift),
		Chi2:              chi2,
		PValue:            pValue,
		DegreesOfFreedom:  1,
		Significant:       pValue < significanceLevel,
	}, nil
}

// chiSquare2x2 runs the independence test with Yates' continuity
// correction on the table [[a, b], [c, d]] and returns the statistic and
// p-value, both rounded to four decimals.
func chiSquare2x2(a, b, c, d int64) (float64, float64, error) {
	observed := [2][2]float64{
		{float64(a), float64(b)},
		{float64(c), float64(d)},
	}
	rows := [2]float64{observed[0][0] + observed[0][1], observed[1][0] + observed[1][1]}
	cols := [2]float64{observed[0][0] + observed[1][0], observed[0][1] + observed[1][1]}
	total := rows[0] + rows[1]

	var chi2 float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			expected := rows[i] * cols[j] / total
			if expected == 0 {
				return 0, 0, errDivisionByZero("contingency table has a zero margin", nil)
			}
			diff := math.Abs(observed[i][j]-expected) - 0.5
			if diff < 0 {
				diff = 0
			}
			chi2 += diff * diff / expected
		}
	}
	pValue := distuv.ChiSquared{K: 1}.Survival(chi2)
	return round4(chi2), round4(pValue), nil
}
