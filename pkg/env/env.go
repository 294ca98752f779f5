package env

import "os"

// Get reads an environment variable, falling back when it is unset or
// empty. Empty counts as unset so a stray `KEY=` in a .env file cannot
// blank out a default.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
