// Package generator simulates a behavioral event stream for seeding and
// load testing. Users sign up on a random day inside the profile window
// and then walk the funnel as a conditional chain: each step only
// happens if the previous one did, with per-channel, per-device and
// A/B-variant multipliers on the step odds. Revenue is drawn from a
// log-normal so a few users account for most of the spend.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
)

var funnelChain = []enums.EventType{
	enums.EventLogin,
	enums.EventViewProduct,
	enums.EventAddToCart,
	enums.EventPurchase,
}

// Generator produces the stream for one profile. The whole stream,
// including event ids, is a pure function of the profile seed.
type Generator struct {
	profile Profile
	rng     *rand.Rand
	start   time.Time
	end     time.Time
	days    int
}

// New validates the profile and seeds the generator.
func New(p Profile) (*Generator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	start, end, err := p.Window()
	if err != nil {
		return nil, err
	}
	return &Generator{
		profile: p,
		rng:     rand.New(rand.NewSource(p.Seed)),
		start:   start,
		end:     end,
		days:    int(end.Sub(start).Hours() / 24),
	}, nil
}

// Generate returns every user's journey, users in id order and each
// journey in chronological order.
func (g *Generator) Generate() []events.Event {
	out := make([]events.Event, 0, g.profile.Users*3)
	for i := 1; i <= g.profile.Users; i++ {
		out = append(out, g.journey(fmt.Sprintf("user-%05d", i))...)
	}
	return out
}

// journey simulates one user: a signup, then the conditional funnel walk.
func (g *Generator) journey(userID string) []events.Event {
	signup := g.start.AddDate(0, 0, g.rng.Intn(g.days))
	channel := g.pickChannel()
	device := g.pickDevice()
	group := enums.ExperimentGroupA
	if g.rng.Intn(2) == 1 {
		group = enums.ExperimentGroupB
	}

	stream := []events.Event{g.event(userID, enums.EventSignup, signup, 0, device, channel, group)}

	uplift := g.profile.ChannelUplift[channel.String()] * g.profile.DeviceUplift[device.String()]
	when := signup.AddDate(0, 0, 1+g.rng.Intn(2))
	for _, step := range funnelChain {
		prob := g.profile.FunnelProbs[step.String()] * uplift
		if step == enums.EventPurchase && group == enums.ExperimentGroupB {
			prob *= g.profile.VariantUplift
		}
		if prob > g.profile.MaxStepChance {
			prob = g.profile.MaxStepChance
		}
		if g.rng.Float64() >= prob {
			break
		}
		when = when.AddDate(0, 0, g.rng.Intn(4))
		if when.After(g.end) {
			break
		}
		var revenue float64
		if step == enums.EventPurchase {
			revenue = g.purchaseAmount()
		}
		stream = append(stream, g.event(userID, step, when, revenue, device, channel, group))
	}
	return stream
}

func (g *Generator) event(userID string, kind enums.EventType, on time.Time, revenue float64,
	device enums.DeviceType, channel enums.AcquisitionChannel, group enums.ExperimentGroup) events.Event {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		id = uuid.New()
	}
	return events.Event{
		ID:         id,
		UserID:     userID,
		Type:       kind,
		OccurredOn: on,
		Revenue:    revenue,
		Device:     device,
		Channel:    channel,
		Group:      group,
	}
}

// purchaseAmount draws a log-normal spend and rounds it to cents; the
// default parameters put the median near $49 with a long upper tail.
func (g *Generator) purchaseAmount() float64 {
	raw := math.Exp(g.profile.RevenueLogMean + g.profile.RevenueLogSigma*g.rng.NormFloat64())
	amount, _ := decimal.NewFromFloat(raw).Round(2).Float64()
	if amount <= 0 {
		amount = 0.01
	}
	return amount
}

func (g *Generator) pickChannel() enums.AcquisitionChannel {
	r := g.rng.Float64()
	var cum float64
	channels := enums.AcquisitionChannelValues()
	for _, c := range channels {
		cum += g.profile.ChannelWeights[c.String()]
		if r < cum {
			return c
		}
	}
	return channels[len(channels)-1]
}

func (g *Generator) pickDevice() enums.DeviceType {
	r := g.rng.Float64()
	var cum float64
	devices := enums.DeviceTypeValues()
	for _, d := range devices {
		cum += g.profile.DeviceWeights[d.String()]
		if r < cum {
			return d
		}
	}
	return devices[len(devices)-1]
}
