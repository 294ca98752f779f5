package compute

import (
	"github.com/pulseboardhq/pulseboard-backend/internal/analytics/types"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
)

// FunnelSteps is the fixed product funnel in lifecycle order.
var FunnelSteps = []enums.EventType{
	enums.EventSignup,
	enums.EventLogin,
	enums.EventViewProduct,
	enums.EventAddToCart,
	enums.EventPurchase,
}

// Funnel counts, per step, the distinct users with at least one event of
// that type anywhere in the set. Reach is not restricted to users who
// also completed every earlier step, so a later step can out-reach an
// earlier one; drop-off then goes negative rather than being clamped.
// Steps with an empty predecessor make step-over-step conversion
// undefined and fail with a division-by-zero error.
func Funnel(set []events.Event) (*types.FunnelResponse, error) {
	if len(set) == 0 {
		return nil, errEmptyInput()
	}
	position := make(map[enums.EventType]int, len(FunnelSteps))
	reach := make([]map[string]struct{}, len(FunnelSteps))
	for i, step := range FunnelSteps {
		position[step] = i
		reach[i] = make(map[string]struct{})
	}
	for _, e := range set {
		if i, ok := position[e.Type]; ok {
			reach[i][e.UserID] = struct{}{}
		}
	}

	top := float64(len(reach[0]))
	if top == 0 {
		return nil, errDivisionByZero("funnel top step has no users", map[string]any{
			"step": FunnelSteps[0].String(),
		})
	}
	steps := make([]types.FunnelStep, len(FunnelSteps))
	for i, step := range FunnelSteps {
		users := float64(len(reach[i]))
		row := types.FunnelStep{
			Step:              step.String(),
			Users:             int64(len(reach[i])),
			ConversionFromTop: round1(users / top * 100),
		}
		if i == 0 {
			row.ConversionFromPrev = 100.0
			row.DropoffPct = 0.0
		} else {
			prev := float64(len(reach[i-1]))
			if prev == 0 {
				return nil, errDivisionByZero("funnel step has an empty predecessor", map[string]any{
					"step": step.String(),
				})
			}
			row.ConversionFromPrev = round1(users / prev * 100)
			row.DropoffPct = round1(100 - row.ConversionFromPrev)
		}
		steps[i] = row
	}

	// Largest step-over-step loss; ties go to the earliest step.
	bottleneck := types.FunnelBottleneck{Step: steps[1].Step, Index: 1, DropoffPct: steps[1].DropoffPct}
	for i := 2; i < len(steps); i++ {
		if steps[i].DropoffPct > bottleneck.DropoffPct {
			bottleneck = types.FunnelBottleneck{Step: steps[i].Step, Index: i, DropoffPct: steps[i].DropoffPct}
		}
	}
	return &types.FunnelResponse{Steps: steps, Bottleneck: bottleneck}, nil
}
