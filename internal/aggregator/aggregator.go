package aggregator

import (
	"math"

	"leasemeter/internal/types"
)

// DefaultReserved is the number of addresses per subnet that cannot be leased:
// the network address, the broadcast address and the router's own gateway
// address. This does not hold for /31, /32 or IPv6 subnets.
const DefaultReserved = 3

// Aggregator computes per-subnet lease utilization for one router
type Aggregator struct {
	// Reserved is subtracted from the subnet size to get the available count
	Reserved int
}

// New creates an aggregator with the given reservation count
func New(reserved int) *Aggregator {
	if reserved < 0 {
		reserved = 0
	}
	return &Aggregator{Reserved: reserved}
}

// Aggregate returns one SubnetUsage per subnet, in the order given.
// A lease is counted in every subnet containing it, so overlapping subnets
// count the same lease more than once.
func (a *Aggregator) Aggregate(router string, server types.DhcpServer, subnets, dynamic, reserved []types.Subnet) []types.SubnetUsage {
	usage := make([]types.SubnetUsage, len(subnets))
	for i, sn := range subnets {
		usage[i] = types.SubnetUsage{
			Router:    router,
			Server:    server.Name,
			Network:   sn,
			Available: a.available(sn),
		}
	}

	count(usage, dynamic, func(u *types.SubnetUsage) { u.Dynamic++ })
	count(usage, reserved, func(u *types.SubnetUsage) { u.Reserved++ })

	return usage
}

func (a *Aggregator) available(sn types.Subnet) int {
	n := sn.AddressCount()
	if n > math.MaxInt {
		return math.MaxInt
	}
	avail := int(n) - a.Reserved
	if avail < 0 {
		return 0
	}
	return avail
}

// count increments the counters of every row whose network contains a lease
func count(usage []types.SubnetUsage, leases []types.Subnet, kind func(*types.SubnetUsage)) {
	for _, lease := range leases {
		addr := lease.Addr()
		global := types.IsGlobal(addr)
		for i := range usage {
			u := &usage[i]
			if !u.Network.Contains(addr) {
				continue
			}
			kind(u)
			u.TotalLeases++
			if global {
				u.Public++
			} else {
				u.Private++
			}
		}
	}
}
