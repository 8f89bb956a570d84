package types

import "net/netip"

// Scope represents the routing scope of an address
type Scope string

const (
	ScopeGlobal  Scope = "public"
	ScopePrivate Scope = "private"
)

// nonGlobalPrefixes lists the IANA special-purpose ranges that are not
// globally reachable. Multicast ranges are not listed and classify as global.
var nonGlobalPrefixes = []netip.Prefix{
	// IPv4
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("255.255.255.255/32"),

	// IPv6
	netip.MustParsePrefix("::/128"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("64:ff9b:1::/48"),
	netip.MustParsePrefix("100::/64"),
	netip.MustParsePrefix("2001::/23"),
	netip.MustParsePrefix("2001:db8::/32"),
	netip.MustParsePrefix("2002::/16"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// globalExceptions are globally reachable ranges inside the blocks above
var globalExceptions = []netip.Prefix{
	netip.MustParsePrefix("192.0.0.9/32"),  // PCP anycast
	netip.MustParsePrefix("192.0.0.10/32"), // TURN anycast
	netip.MustParsePrefix("2001:1::1/128"),
	netip.MustParsePrefix("2001:1::2/128"),
	netip.MustParsePrefix("2001:3::/32"), // AMT
	netip.MustParsePrefix("2001:4:112::/48"),
	netip.MustParsePrefix("2001:20::/28"), // ORCHIDv2
}

// ClassifyAddr returns the scope of addr. It depends only on the address bits.
// IPv4-mapped IPv6 addresses are classified by their embedded IPv4 address.
func ClassifyAddr(addr netip.Addr) Scope {
	if !addr.IsValid() {
		return ScopePrivate
	}
	addr = addr.WithZone("").Unmap()
	for _, p := range globalExceptions {
		if p.Contains(addr) {
			return ScopeGlobal
		}
	}
	for _, p := range nonGlobalPrefixes {
		if p.Contains(addr) {
			return ScopePrivate
		}
	}
	return ScopeGlobal
}

// IsGlobal reports whether addr is globally routable
func IsGlobal(addr netip.Addr) bool {
	return ClassifyAddr(addr) == ScopeGlobal
}
