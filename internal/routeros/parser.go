package routeros

import (
	"net/netip"
	"strconv"
	"strings"

	"leasemeter/internal/types"
)

const (
	// RecordMarker starts every record in "print as-value" output
	RecordMarker = ".id="
	// FieldSeparator separates key=value fields within a record.
	// Values containing it are not supported: there is no escaping.
	FieldSeparator = ";"
	// AddressKey is the field holding interface and lease addresses
	AddressKey = "address"
)

// Parser decodes router command output into typed records
type Parser interface {
	// InterfaceNetworks returns the networks of the interface addresses in raw
	InterfaceNetworks(raw string) ([]types.Subnet, error)
	// Leases returns the leased addresses in raw as host networks
	Leases(raw string) ([]types.Subnet, error)
	// RouterName extracts the router identity
	RouterName(lines []string) (string, error)
	// Count extracts a count-only result
	Count(lines []string) (int, error)
	// Field extracts a single field value
	Field(lines []string) (string, error)
}

// PrintAsValue decodes the output of ":put [ ... print as-value ]" commands
type PrintAsValue struct{}

// NewParser returns the default parser
func NewParser() Parser {
	return PrintAsValue{}
}

// InterfaceNetworks implements Parser
func (PrintAsValue) InterfaceNetworks(raw string) ([]types.Subnet, error) {
	return ParseInterfaceNetworks(raw)
}

// Leases implements Parser
func (PrintAsValue) Leases(raw string) ([]types.Subnet, error) {
	return ParseLeases(raw)
}

// RouterName implements Parser
func (PrintAsValue) RouterName(lines []string) (string, error) {
	return ParseRouterName(lines)
}

// Count implements Parser
func (PrintAsValue) Count(lines []string) (int, error) {
	return ParseCount(lines)
}

// Field implements Parser
func (PrintAsValue) Field(lines []string) (string, error) {
	return ParseSingleField(lines)
}

// JoinOutput rebuilds the raw blob from output lines.
// Long as-value output may be wrapped over several lines by the terminal.
func JoinOutput(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(strings.TrimRight(line, "\r\n"))
	}
	return b.String()
}

// ParseInterfaceNetworks returns the network of every address record in raw,
// in output order. Output before the first record marker is treated as a
// record too, so a single unmarked record is accepted. Returns
// types.ErrNoData when no address is found.
func ParseInterfaceNetworks(raw string) ([]types.Subnet, error) {
	var networks []types.Subnet
	for _, record := range splitRecords(raw) {
		value, ok := fieldValue(record, AddressKey)
		if !ok {
			continue
		}
		sn, err := types.ParseInterfaceSubnet(value)
		if err != nil {
			return nil, types.Malformed(record, "invalid interface address %q", value)
		}
		networks = append(networks, sn)
	}
	if len(networks) == 0 {
		return nil, types.ErrNoData
	}
	return networks, nil
}

// ParseLeases returns every leased address in raw as a host network.
// Output before the first record marker is not a record and is skipped.
// Returns types.ErrNoData when no lease is found.
func ParseLeases(raw string) ([]types.Subnet, error) {
	records := splitRecords(raw)
	if len(records) > 0 {
		records = records[1:]
	}

	var leases []types.Subnet
	for _, record := range records {
		value, ok := fieldValue(record, AddressKey)
		if !ok {
			continue
		}
		addr, err := parseLeaseAddr(value)
		if err != nil {
			return nil, types.Malformed(record, "invalid lease address %q", value)
		}
		sn, err := types.HostSubnet(addr)
		if err != nil {
			return nil, types.Malformed(record, "invalid lease address %q", value)
		}
		leases = append(leases, sn)
	}
	if len(leases) == 0 {
		return nil, types.ErrNoData
	}
	return leases, nil
}

// ParseRouterName returns the value after the first ": " of the identity line
func ParseRouterName(lines []string) (string, error) {
	line, ok := firstLine(lines)
	if !ok {
		return "", types.Malformed("", "empty identity response")
	}
	_, name, found := strings.Cut(line, ": ")
	if !found {
		return "", types.Malformed(line, "missing \": \" delimiter")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", types.Malformed(line, "empty router name")
	}
	return name, nil
}

// ParseCount parses a count-only response
func ParseCount(lines []string) (int, error) {
	line, ok := firstLine(lines)
	if !ok {
		return 0, types.Malformed("", "empty count response")
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 0 {
		return 0, types.Malformed(line, "not a count")
	}
	return n, nil
}

// ParseSingleField returns the first non-empty response line, which holds
// exactly one field value.
func ParseSingleField(lines []string) (string, error) {
	line, ok := firstLine(lines)
	if !ok {
		return "", types.Malformed("", "empty field response")
	}
	return line, nil
}

// splitRecords splits raw on the record marker, dropping blank records.
// The first element is whatever preceded the first marker, blank or not.
func splitRecords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, RecordMarker)
	records := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" && i > 0 {
			continue
		}
		records = append(records, p)
	}
	return records
}

// fieldValue looks up key in a record of key=value fields. A key with an
// empty value counts as absent.
func fieldValue(record, key string) (string, bool) {
	for _, field := range strings.Split(record, FieldSeparator) {
		k, v, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		if strings.TrimSpace(k) == key {
			v = strings.TrimSpace(v)
			return v, v != ""
		}
	}
	return "", false
}

// parseLeaseAddr accepts a bare address or one carrying a prefix length
func parseLeaseAddr(value string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(value); err == nil {
		return addr, nil
	}
	p, err := netip.ParsePrefix(value)
	if err != nil {
		return netip.Addr{}, err
	}
	return p.Addr(), nil
}

func firstLine(lines []string) (string, bool) {
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			return line, true
		}
	}
	return "", false
}
