package enums

import "fmt"

// EventType is the canonical event_type a behavioral log row may carry.
type EventType string

const (
	EventSignup      EventType = "signup"
	EventLogin       EventType = "login"
	EventViewProduct EventType = "view_product"
	EventAddToCart   EventType = "add_to_cart"
	EventPurchase    EventType = "purchase"
)

// validEventTypes is ordered by lifecycle stage, signup first.
var validEventTypes = []EventType{
	EventSignup,
	EventLogin,
	EventViewProduct,
	EventAddToCart,
	EventPurchase,
}

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEventType converts the raw string to EventType.
func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// EventTypeValues returns the enum in lifecycle order.
func EventTypeValues() []EventType {
	out := make([]EventType, len(validEventTypes))
	copy(out, validEventTypes)
	return out
}
