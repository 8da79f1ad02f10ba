// Package privacy holds helpers for keeping personally identifiable
// information out of logs.
package privacy

import (
	"fmt"
	"net"
)

// AnonymizeIP truncates an address so it no longer identifies a single host.
// IPv4 addresses lose the last octet (a /24 mask); IPv6 addresses keep only
// the /48 prefix. Unparseable input yields "invalid", empty input "unknown".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}
