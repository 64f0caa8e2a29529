package netutil

import (
	"fmt"
	"net/netip"
)

// Subnet24 collapses an IPv4 address to its /24 prefix, the bucket the
// SMS rate limiter counts per hour. IPv4-mapped IPv6 addresses unmap to
// their v4 form; anything else yields "".
func Subnet24(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return ""
	}
	b := addr.As4()
	return fmt.Sprintf("%d.%d.%d", b[0], b[1], b[2])
}
