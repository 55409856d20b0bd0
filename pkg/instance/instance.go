// Package instance names the running process in logs and event attributes.
package instance

import "os"

const fallbackID = "local"

// GetID returns the configured instance identifier. SONGQUEUE_INSTANCE_ID
// wins over the platform provided DYNO, then the hostname.
func GetID() string {
	for _, key := range []string{"SONGQUEUE_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
