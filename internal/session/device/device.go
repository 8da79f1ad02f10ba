// Package device derives a coarse, stable fingerprint from a user agent for
// session audit attribution.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Fingerprint hashes browser family, major version, and OS into a short
// stable identifier. It deliberately excludes the IP address (too volatile)
// and the full UA string (too identifying for logs).
func Fingerprint(userAgentString string) string {
	if userAgentString == "" {
		return ""
	}

	ua := useragent.New(userAgentString)
	browser, version := ua.Browser()

	majorVersion := "unknown"
	if version != "" {
		if parts := strings.Split(version, "."); len(parts) > 0 && parts[0] != "" {
			majorVersion = parts[0]
		}
	}

	raw := fmt.Sprintf("%s/%s/%s", browser, majorVersion, ua.OS())
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
