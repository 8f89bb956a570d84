package types

import (
	"fmt"
	"math"
	"net"
	"net/netip"

	"github.com/apparentlymart/go-cidr/cidr"
)

// Subnet represents an IPv4 or IPv6 network with its host bits cleared
type Subnet struct {
	prefix netip.Prefix
}

// NewSubnet creates a subnet from an address and prefix length.
// Host bits of addr are masked off.
func NewSubnet(addr netip.Addr, bits int) (Subnet, error) {
	if !addr.IsValid() {
		return Subnet{}, fmt.Errorf("invalid address")
	}
	addr = addr.WithZone("")
	if bits < 0 || bits > addr.BitLen() {
		return Subnet{}, fmt.Errorf("prefix length %d out of range for %s", bits, addr)
	}
	p, err := addr.Prefix(bits)
	if err != nil {
		return Subnet{}, fmt.Errorf("failed to build prefix: %w", err)
	}
	return Subnet{prefix: p}, nil
}

// HostSubnet wraps a single address as a /32 or /128 network
func HostSubnet(addr netip.Addr) (Subnet, error) {
	if !addr.IsValid() {
		return Subnet{}, fmt.Errorf("invalid address")
	}
	return NewSubnet(addr, addr.BitLen())
}

// ParseSubnet parses CIDR notation such as "192.168.1.0/24".
// A bare address is accepted as a host network.
func ParseSubnet(s string) (Subnet, error) {
	if p, err := netip.ParsePrefix(s); err == nil {
		return NewSubnet(p.Addr(), p.Bits())
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return Subnet{}, fmt.Errorf("invalid network %q", s)
	}
	return HostSubnet(addr)
}

// ParseInterfaceSubnet parses an interface address with prefix length
// ("192.168.1.1/24") and returns the network it belongs to.
func ParseInterfaceSubnet(s string) (Subnet, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return Subnet{}, fmt.Errorf("invalid interface address %q: %w", s, err)
	}
	return NewSubnet(p.Addr(), p.Bits())
}

// MustParseSubnet is like ParseSubnet but panics on error
func MustParseSubnet(s string) Subnet {
	sn, err := ParseSubnet(s)
	if err != nil {
		panic(err)
	}
	return sn
}

// Prefix returns the underlying netip prefix
func (s Subnet) Prefix() netip.Prefix {
	return s.prefix
}

// Addr returns the network address
func (s Subnet) Addr() netip.Addr {
	return s.prefix.Addr()
}

// Bits returns the prefix length
func (s Subnet) Bits() int {
	return s.prefix.Bits()
}

// IsValid reports whether the subnet was initialised
func (s Subnet) IsValid() bool {
	return s.prefix.IsValid()
}

// IsHost reports whether the subnet covers exactly one address
func (s Subnet) IsHost() bool {
	return s.prefix.IsSingleIP()
}

// Contains reports whether addr falls within the subnet
func (s Subnet) Contains(addr netip.Addr) bool {
	return s.prefix.Contains(addr.WithZone(""))
}

// ContainsSubnet reports whether other lies entirely within s
func (s Subnet) ContainsSubnet(other Subnet) bool {
	return other.Bits() >= s.Bits() && s.prefix.Contains(other.Addr())
}

// Overlaps reports whether s and other share any address
func (s Subnet) Overlaps(other Subnet) bool {
	return s.prefix.Overlaps(other.prefix)
}

// AddressCount returns 2^(max-prefix), saturating at math.MaxUint64
func (s Subnet) AddressCount() uint64 {
	if !s.IsValid() {
		return 0
	}
	if s.Addr().BitLen()-s.Bits() >= 64 {
		return math.MaxUint64
	}
	return cidr.AddressCount(s.ipNet())
}

// Scope classifies the network address of the subnet
func (s Subnet) Scope() Scope {
	return ClassifyAddr(s.Addr())
}

// String returns CIDR notation
func (s Subnet) String() string {
	if !s.IsValid() {
		return ""
	}
	return s.prefix.String()
}

// MarshalText implements encoding.TextMarshaler
func (s Subnet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Subnet) UnmarshalText(text []byte) error {
	sn, err := ParseSubnet(string(text))
	if err != nil {
		return err
	}
	*s = sn
	return nil
}

func (s Subnet) ipNet() *net.IPNet {
	addr := s.Addr()
	return &net.IPNet{
		IP:   net.IP(addr.AsSlice()),
		Mask: net.CIDRMask(s.Bits(), addr.BitLen()),
	}
}
