package enums

import "fmt"

// ExperimentGroup is the A/B assignment a user carries for the pricing
// experiment. Assignment is per user and never changes mid-stream.
type ExperimentGroup string

const (
	ExperimentGroupA ExperimentGroup = "A"
	ExperimentGroupB ExperimentGroup = "B"
)

var validExperimentGroups = []ExperimentGroup{
	ExperimentGroupA,
	ExperimentGroupB,
}

// String implements fmt.Stringer.
func (g ExperimentGroup) String() string {
	return string(g)
}

// IsValid reports whether the group label is recognized.
func (g ExperimentGroup) IsValid() bool {
	for _, candidate := range validExperimentGroups {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseExperimentGroup converts a raw string into an ExperimentGroup.
func ParseExperimentGroup(value string) (ExperimentGroup, error) {
	for _, candidate := range validExperimentGroups {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid experiment group %q", value)
}
