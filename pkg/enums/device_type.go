package enums

import "fmt"

// DeviceType is the device class an event was recorded on.
type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
)

var validDeviceTypes = []DeviceType{
	DeviceDesktop,
	DeviceMobile,
	DeviceTablet,
}

// String implements fmt.Stringer.
func (d DeviceType) String() string {
	return string(d)
}

// IsValid reports whether the device type is recognized.
func (d DeviceType) IsValid() bool {
	for _, candidate := range validDeviceTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeviceType converts a raw string into a DeviceType.
func ParseDeviceType(value string) (DeviceType, error) {
	for _, candidate := range validDeviceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid device type %q", value)
}

// DeviceTypeValues returns every recognized device type.
func DeviceTypeValues() []DeviceType {
	out := make([]DeviceType, len(validDeviceTypes))
	copy(out, validDeviceTypes)
	return out
}
