package generator

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pulseboardhq/pulseboard-backend/pkg/enums"
)

const dateLayout = "2006-01-02"

// Profile controls the synthetic behavioral stream: population size, the
// date window users sign up in, and the funnel economics per acquisition
// channel and device. The defaults model a mid-size consumer product
// where organic and referral users convert best and the B variant lifts
// purchases by ten percent.
type Profile struct {
	Users int    `yaml:"users"`
	Seed  int64  `yaml:"seed"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`

	ChannelWeights map[string]float64 `yaml:"channel_weights"`
	DeviceWeights  map[string]float64 `yaml:"device_weights"`

	FunnelProbs   map[string]float64 `yaml:"funnel_probs"`
	ChannelUplift map[string]float64 `yaml:"channel_uplift"`
	DeviceUplift  map[string]float64 `yaml:"device_uplift"`
	VariantUplift float64            `yaml:"variant_uplift"`
	MaxStepChance float64            `yaml:"max_step_chance"`

	RevenueLogMean  float64 `yaml:"revenue_log_mean"`
	RevenueLogSigma float64 `yaml:"revenue_log_sigma"`
}

// DefaultProfile returns the stock simulation parameters.
func DefaultProfile() Profile {
	return Profile{
		Users: 20000,
		Seed:  42,
		Start: "2023-01-01",
		End:   "2024-06-30",
		ChannelWeights: map[string]float64{
			"organic":     0.30,
			"paid_search": 0.25,
			"social":      0.20,
			"email":       0.15,
			"referral":    0.10,
		},
		DeviceWeights: map[string]float64{
			"desktop": 0.45,
			"mobile":  0.42,
			"tablet":  0.13,
		},
		FunnelProbs: map[string]float64{
			"login":        0.82,
			"view_product": 0.70,
			"add_to_cart":  0.45,
			"purchase":     0.38,
		},
		ChannelUplift: map[string]float64{
			"organic":     1.20,
			"paid_search": 0.95,
			"social":      0.85,
			"email":       1.10,
			"referral":    1.15,
		},
		DeviceUplift: map[string]float64{
			"desktop": 1.15,
			"mobile":  0.88,
			"tablet":  0.97,
		},
		VariantUplift:   1.10,
		MaxStepChance:   0.98,
		RevenueLogMean:  3.9,
		RevenueLogSigma: 0.8,
	}
}

// LoadProfile reads a YAML profile from path, layered over the defaults
// so a file only needs the fields it wants to change.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()

	file, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, err
	}
	if err := yaml.Unmarshal(file, &profile); err != nil {
		return Profile{}, fmt.Errorf("parsing profile: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Validate checks the profile for parameters the simulation cannot run on.
func (p Profile) Validate() error {
	if p.Users <= 0 {
		return fmt.Errorf("profile: users must be positive")
	}
	start, end, err := p.Window()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("profile: start %s must precede end %s", p.Start, p.End)
	}
	for _, channel := range enums.AcquisitionChannelValues() {
		if _, ok := p.ChannelWeights[channel.String()]; !ok {
			return fmt.Errorf("profile: missing channel weight for %s", channel)
		}
		if _, ok := p.ChannelUplift[channel.String()]; !ok {
			return fmt.Errorf("profile: missing channel uplift for %s", channel)
		}
	}
	for _, device := range enums.DeviceTypeValues() {
		if _, ok := p.DeviceWeights[device.String()]; !ok {
			return fmt.Errorf("profile: missing device weight for %s", device)
		}
		if _, ok := p.DeviceUplift[device.String()]; !ok {
			return fmt.Errorf("profile: missing device uplift for %s", device)
		}
	}
	if err := checkWeights("channel_weights", p.ChannelWeights); err != nil {
		return err
	}
	if err := checkWeights("device_weights", p.DeviceWeights); err != nil {
		return err
	}
	for _, step := range []string{"login", "view_product", "add_to_cart", "purchase"} {
		prob, ok := p.FunnelProbs[step]
		if !ok {
			return fmt.Errorf("profile: missing funnel probability for %s", step)
		}
		if prob < 0 || prob > 1 {
			return fmt.Errorf("profile: funnel probability for %s out of range: %v", step, prob)
		}
	}
	if p.VariantUplift <= 0 {
		return fmt.Errorf("profile: variant uplift must be positive")
	}
	if p.MaxStepChance <= 0 || p.MaxStepChance > 1 {
		return fmt.Errorf("profile: max step chance out of range: %v", p.MaxStepChance)
	}
	if p.RevenueLogSigma < 0 {
		return fmt.Errorf("profile: revenue sigma must be non-negative")
	}
	return nil
}

// Window parses the signup date window.
func (p Profile) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, p.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("profile: bad start date: %w", err)
	}
	end, err := time.Parse(dateLayout, p.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("profile: bad end date: %w", err)
	}
	return start.UTC(), end.UTC(), nil
}

func checkWeights(name string, weights map[string]float64) error {
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("profile: %s has a negative weight", name)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("profile: %s must sum to 1, got %v", name, sum)
	}
	return nil
}
