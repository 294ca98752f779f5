package instance

import "os"

// GetID identifies this process in log streams when several replicas
// share one sink. Platform-assigned ids win over the explicit override.
func GetID() string {
	if id := os.Getenv("PULSEBOARD_INSTANCE_ID"); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	return "local"
}
