// Package discovery locates kwal controllers on the local network via mDNS.
//
// Controllers advertise an "_http._tcp" service and use hostnames of the
// form "kwal.local" or "kwal-<name>.local" (e.g. "kwal-studio.local" for a
// named installation). Discovery browses for HTTP services, filters by
// hostname, and collects each controller's address, port, and TXT-record
// metadata.
//
// Requires multicast support on the network interface and mDNS (UDP port
// 5353) through the firewall. Safe for concurrent use.
package discovery
