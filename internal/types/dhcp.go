package types

import (
	"fmt"
	"strconv"

	"leasemeter/internal/validator"
)

var validate = validator.New()

// Router represents one row of the router list
type Router struct {
	Label   string `json:"label"`
	Address string `json:"address" validate:"required,router_address"`
}

// Validate performs validation of Router
func (r *Router) Validate() error {
	return validate.Struct(r)
}

// String returns the label if set, otherwise the address
func (r Router) String() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Address
}

// DhcpServer represents a DHCP server instance bound to one interface
type DhcpServer struct {
	Name      string `json:"name"`
	Interface string `json:"interface"`
}

// SubnetUsage is one report row: lease utilization of a DHCP-bound subnet
type SubnetUsage struct {
	Router      string `json:"router"`
	Server      string `json:"server"`
	Network     Subnet `json:"network"`
	Available   int    `json:"available"`
	TotalLeases int    `json:"total_leases"`
	Dynamic     int    `json:"dynamic"`
	Reserved    int    `json:"reserved"`
	Public      int    `json:"public"`
	Private     int    `json:"private"`
}

// usageHeader holds the report column names, matching the json tags above
var usageHeader = []string{
	"router", "server", "network", "available",
	"total_leases", "dynamic", "reserved", "public", "private",
}

// CSVHeader returns the report header row
func CSVHeader() []string {
	h := make([]string, len(usageHeader))
	copy(h, usageHeader)
	return h
}

// CSVRecord returns the row in CSVHeader order
func (u *SubnetUsage) CSVRecord() []string {
	return []string{
		u.Router,
		u.Server,
		u.Network.String(),
		strconv.Itoa(u.Available),
		strconv.Itoa(u.TotalLeases),
		strconv.Itoa(u.Dynamic),
		strconv.Itoa(u.Reserved),
		strconv.Itoa(u.Public),
		strconv.Itoa(u.Private),
	}
}

// Check verifies the counter invariants of a finished row
func (u *SubnetUsage) Check() error {
	if u.TotalLeases != u.Dynamic+u.Reserved {
		return fmt.Errorf("%s: total_leases %d != dynamic %d + reserved %d",
			u.Network, u.TotalLeases, u.Dynamic, u.Reserved)
	}
	if u.TotalLeases != u.Public+u.Private {
		return fmt.Errorf("%s: total_leases %d != public %d + private %d",
			u.Network, u.TotalLeases, u.Public, u.Private)
	}
	return nil
}

// Utilization returns the share of available addresses that are leased
func (u *SubnetUsage) Utilization() float64 {
	if u.Available <= 0 {
		return 0
	}
	return float64(u.TotalLeases) / float64(u.Available)
}
