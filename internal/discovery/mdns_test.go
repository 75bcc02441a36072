package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "unnamed controller with IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "kwal.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
				Text:     []string{"path=/"},
			},
			wantName: "kwal",
			wantIP:   "192.168.4.16",
			wantPort: 80,
		},
		{
			name: "named installation without trailing dot",
			entry: &zeroconf.ServiceEntry{
				HostName: "kwal-studio.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantName: "studio",
			wantIP:   "10.0.0.5",
			wantPort: 80,
		},
		{
			name: "mixed-case hostname",
			entry: &zeroconf.ServiceEntry{
				HostName: "Kwal-Hallway.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.100")},
			},
			wantName: "hallway",
			wantIP:   "192.168.1.100",
			wantPort: 80,
		},
		{
			name: "no port specified defaults to 80",
			entry: &zeroconf.ServiceEntry{
				HostName: "kwal.local",
				Port:     0,
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantName: "kwal",
			wantIP:   "172.16.0.1",
			wantPort: 80,
		},
		{
			name: "other device on the network",
			entry: &zeroconf.ServiceEntry{
				HostName: "printer.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "empty hostname",
			entry: &zeroconf.ServiceEntry{
				HostName: "",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no address at all",
			entry: &zeroconf.ServiceEntry{
				HostName: "kwal.local",
				Port:     80,
			},
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "kwal-attic.local",
				Port:     80,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantName: "attic",
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name: "both families prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "kwal.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantName: "kwal",
			wantIP:   "192.168.1.50",
			wantPort: 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if c != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", c)
				}
				return
			}

			if c == nil {
				t.Fatal("parseServiceEntry() = nil, want controller")
			}
			if c.Name != tt.wantName {
				t.Errorf("Name = %v, want %v", c.Name, tt.wantName)
			}
			if c.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", c.IP, tt.wantIP)
			}
			if c.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", c.Port, tt.wantPort)
			}
			if c.Hostname != tt.entry.HostName {
				t.Errorf("Hostname = %v, want %v", c.Hostname, tt.entry.HostName)
			}
			if time.Since(c.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", c.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := &zeroconf.ServiceEntry{
		HostName: "kwal.local",
		Port:     80,
		AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
		Text:     []string{"path=/", "fw=2.4.1", "flag", "leds=144"},
	}

	c := scanner.parseServiceEntry(entry)
	if c == nil {
		t.Fatal("parseServiceEntry() = nil, want controller")
	}

	want := map[string]string{
		"path": "/",
		"fw":   "2.4.1",
		"flag": "",
		"leds": "144",
	}
	if len(c.Metadata) != len(want) {
		t.Errorf("Metadata has %d entries, want %d", len(c.Metadata), len(want))
	}
	for key, wantValue := range want {
		if got, ok := c.Metadata[key]; !ok {
			t.Errorf("Metadata missing key %q", key)
		} else if got != wantValue {
			t.Errorf("Metadata[%q] = %q, want %q", key, got, wantValue)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestHostPattern(t *testing.T) {
	tests := []struct {
		hostname    string
		shouldMatch bool
		name        string
	}{
		{"kwal.local", true, ""},
		{"kwal.local.", true, ""},
		{"kwal-studio.local", true, "studio"},
		{"kwal-a1.local.", true, "a1"},
		{"kwal-.local", false, ""},
		{"kwalstudio.local", false, ""},
		{"notkwal.local", false, ""},
		{"kwal", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			matches := hostPattern.FindStringSubmatch(tt.hostname)
			if tt.shouldMatch {
				if matches == nil {
					t.Fatalf("hostPattern did not match %q", tt.hostname)
				}
				if matches[1] != tt.name {
					t.Errorf("matched %q with name %q, want %q", tt.hostname, matches[1], tt.name)
				}
			} else if matches != nil {
				t.Errorf("hostPattern matched %q, want no match", tt.hostname)
			}
		})
	}
}
