package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type kwal controllers advertise.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."

	// DefaultScanTimeout bounds a full network browse.
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the controller's HTTP port.
	DefaultPort = 80
)

// hostPattern matches controller hostnames: "kwal.local" for the unnamed
// default, "kwal-<name>.local" for named installations.
var hostPattern = regexp.MustCompile(`^kwal(?:-([a-z0-9]+))?\.local\.?$`)

// Scanner browses the local network for kwal controllers.
type Scanner struct {
	// Timeout is the maximum time to wait for controllers to answer.
	Timeout time.Duration
}

// NewScanner creates a scanner with the default timeout.
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// Scan discovers all kwal controllers on the local network.
func (s *Scanner) Scan() ([]*Controller, error) {
	return s.ScanWithContext(context.Background())
}

// ScanWithContext discovers controllers, honoring the caller's context in
// addition to the scanner timeout.
func (s *Scanner) ScanWithContext(ctx context.Context) ([]*Controller, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	controllers := make([]*Controller, 0)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if c := s.parseServiceEntry(entry); c != nil {
				controllers = append(controllers, c)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	return controllers, nil
}

// WaitFor blocks until the named controller answers or the timeout
// expires. The unnamed default answers to "kwal".
func (s *Scanner) WaitFor(name string) (*Controller, error) {
	return s.WaitForWithContext(context.Background(), name)
}

// WaitForWithContext waits for a named controller with a custom context.
func (s *Scanner) WaitForWithContext(ctx context.Context, name string) (*Controller, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Controller, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if c := s.parseServiceEntry(entry); c != nil && c.Name == name {
				found <- c
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case c := <-found:
		return c, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("controller %q not found within timeout", name)
	}
}

// parseServiceEntry converts a zeroconf entry to a Controller, or nil
// when the entry is not a kwal controller.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Controller {
	hostname := entry.HostName
	if hostname == "" {
		return nil
	}

	matches := hostPattern.FindStringSubmatch(strings.ToLower(hostname))
	if matches == nil {
		return nil
	}
	name := matches[1]
	if name == "" {
		name = "kwal"
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Controller{
		Name:         name,
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Scan is a convenience function to browse with a custom timeout.
func Scan(timeout time.Duration) ([]*Controller, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan()
}

// QuickScan performs a fast browse with a 3-second timeout.
func QuickScan() ([]*Controller, error) {
	scanner := NewScanner()
	scanner.Timeout = 3 * time.Second
	return scanner.Scan()
}
