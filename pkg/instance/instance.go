package instance

import "os"

// GetID returns the process instance identifier used to tell API replicas
// apart in logs. SWEETFROZEN_INSTANCE_ID wins over the container hostname.
func GetID() string {
	if id := os.Getenv("SWEETFROZEN_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
