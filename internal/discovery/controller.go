package discovery

import (
	"fmt"
	"time"
)

// Controller is a kwal installation discovered on the network.
type Controller struct {
	// Name distinguishes installations: the hostname suffix for
	// "kwal-<name>.local", or "kwal" for the unnamed default.
	Name string

	// Hostname is the mDNS hostname (e.g. "kwal-studio.local.").
	Hostname string

	// IP is the address to reach the controller at, IPv4 preferred.
	IP string

	// Port is the HTTP port, typically 80.
	Port int

	// Metadata holds the mDNS TXT record entries.
	Metadata map[string]string

	// DiscoveredAt is when this controller answered the browse.
	DiscoveredAt time.Time
}

// String returns a human-readable description of the controller.
func (c *Controller) String() string {
	return fmt.Sprintf("Kwal controller %s (%s) at %s:%d", c.Name, c.Hostname, c.IP, c.Port)
}

// BaseURL returns the controller's HTTP base URL.
func (c *Controller) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.IP, c.Port)
}

// GetMetadata returns a TXT record value, or "" when absent.
func (c *Controller) GetMetadata(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}
