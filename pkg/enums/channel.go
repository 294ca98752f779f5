package enums

import "fmt"

// AcquisitionChannel is the marketing channel a user was acquired through.
// It is stamped on every event the user emits, not just the signup.
type AcquisitionChannel string

const (
	ChannelOrganic    AcquisitionChannel = "organic"
	ChannelPaidSearch AcquisitionChannel = "paid_search"
	ChannelSocial     AcquisitionChannel = "social"
	ChannelEmail      AcquisitionChannel = "email"
	ChannelReferral   AcquisitionChannel = "referral"
)

var validChannels = []AcquisitionChannel{
	ChannelOrganic,
	ChannelPaidSearch,
	ChannelSocial,
	ChannelEmail,
	ChannelReferral,
}

// String implements fmt.Stringer.
func (c AcquisitionChannel) String() string {
	return string(c)
}

// IsValid reports whether the channel is recognized.
func (c AcquisitionChannel) IsValid() bool {
	for _, candidate := range validChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseAcquisitionChannel converts a raw string into an AcquisitionChannel.
func ParseAcquisitionChannel(value string) (AcquisitionChannel, error) {
	for _, candidate := range validChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid acquisition channel %q", value)
}

// AcquisitionChannelValues returns every recognized channel.
func AcquisitionChannelValues() []AcquisitionChannel {
	out := make([]AcquisitionChannel, len(validChannels))
	copy(out, validChannels)
	return out
}
