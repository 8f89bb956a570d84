package inventory

import (
	"context"
	"fmt"

	"leasemeter/internal/aggregator"
	"leasemeter/internal/routeros"
	"leasemeter/internal/session"
	"leasemeter/internal/types"

	"go.uber.org/zap"
)

// Result is the outcome of inspecting one router
type Result struct {
	Router  types.Router
	Name    string
	Servers []types.DhcpServer
	Usage   []types.SubnetUsage
}

// Inspector collects DHCP subnet usage from a single router
type Inspector struct {
	connector  session.Connector
	parser     routeros.Parser
	aggregator *aggregator.Aggregator
	logger     *zap.Logger
}

// NewInspector creates new router inspector
func NewInspector(connector session.Connector, parser routeros.Parser, agg *aggregator.Aggregator, logger *zap.Logger) *Inspector {
	if parser == nil {
		parser = routeros.NewParser()
	}
	if agg == nil {
		agg = aggregator.New(aggregator.DefaultReserved)
	}
	return &Inspector{
		connector:  connector,
		parser:     parser,
		aggregator: agg,
		logger:     logger,
	}
}

// Inspect connects to router and returns the usage of every DHCP-bound
// subnet. Any failure discards the router's partial results.
func (i *Inspector) Inspect(ctx context.Context, router types.Router) (*Result, error) {
	logger := i.logger.With(zap.String("router", router.String()), zap.String("address", router.Address))

	sess, err := i.connector.Connect(ctx, router.Address)
	if err != nil {
		if !types.IsConnectionFailure(err) {
			err = &types.ConnectionError{Address: router.Address, Err: err}
		}
		return nil, err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Debug("Failed to close session", zap.Error(err))
		}
	}()

	q := &querier{sess: sess, parser: i.parser}

	name, err := q.routerName(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get router identity: %w", err)
	}
	logger = logger.With(zap.String("identity", name))

	servers, err := q.dhcpServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dhcp servers: %w", err)
	}

	result := &Result{
		Router:  router,
		Name:    name,
		Servers: servers,
	}
	if len(servers) == 0 {
		logger.Debug("No DHCP servers configured")
		return result, nil
	}

	// Dynamic leases are queried server-wide once and matched per server by
	// subnet containment.
	dynamic, err := q.leases(ctx, routeros.DynamicLeasesCommand)
	if err != nil {
		return nil, fmt.Errorf("failed to get dynamic leases: %w", err)
	}

	for _, server := range servers {
		subnets, err := q.interfaceNetworks(ctx, server.Interface)
		if err != nil {
			return nil, fmt.Errorf("failed to get addresses of interface %s: %w", server.Interface, err)
		}
		if len(subnets) == 0 {
			logger.Debug("No addresses on DHCP interface",
				zap.String("server", server.Name),
				zap.String("interface", server.Interface))
			continue
		}

		reserved, err := q.leases(ctx, routeros.ReservedLeasesCommand(server.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to get reserved leases of server %s: %w", server.Name, err)
		}

		usage := i.aggregator.Aggregate(name, server, subnets, dynamic, reserved)
		for idx := range usage {
			if err := usage[idx].Check(); err != nil {
				return nil, fmt.Errorf("inconsistent usage for server %s: %w", server.Name, err)
			}
			logger.Debug("Subnet usage",
				zap.String("server", server.Name),
				zap.Stringer("network", usage[idx].Network),
				zap.Int("leases", usage[idx].TotalLeases),
				zap.Int("available", usage[idx].Available),
				zap.Float64("utilization", usage[idx].Utilization()))
		}
		result.Usage = append(result.Usage, usage...)

		logger.Debug("Aggregated DHCP server",
			zap.String("server", server.Name),
			zap.String("interface", server.Interface),
			zap.Int("subnets", len(subnets)),
			zap.Int("reserved_leases", len(reserved)))
	}

	return result, nil
}

// querier runs commands on a session and decodes their output
type querier struct {
	sess   session.Session
	parser routeros.Parser
}

func (q *querier) run(ctx context.Context, command string) ([]string, error) {
	lines, err := q.sess.Run(ctx, command)
	if err != nil {
		return nil, types.WithCommand(err, command)
	}
	return lines, nil
}

func (q *querier) routerName(ctx context.Context) (string, error) {
	lines, err := q.run(ctx, routeros.IdentityCommand)
	if err != nil {
		return "", err
	}
	name, err := q.parser.RouterName(lines)
	return name, types.WithCommand(err, routeros.IdentityCommand)
}

// dhcpServers fetches the server count, then name and interface by index
func (q *querier) dhcpServers(ctx context.Context) ([]types.DhcpServer, error) {
	lines, err := q.run(ctx, routeros.ServerCountCommand)
	if err != nil {
		return nil, err
	}
	n, err := q.parser.Count(lines)
	if err != nil {
		return nil, types.WithCommand(err, routeros.ServerCountCommand)
	}

	servers := make([]types.DhcpServer, 0, n)
	for idx := 0; idx < n; idx++ {
		name, err := q.field(ctx, idx, routeros.ServerFieldName)
		if err != nil {
			return nil, err
		}
		iface, err := q.field(ctx, idx, routeros.ServerFieldInterface)
		if err != nil {
			return nil, err
		}
		servers = append(servers, types.DhcpServer{Name: name, Interface: iface})
	}
	return servers, nil
}

func (q *querier) field(ctx context.Context, idx int, field string) (string, error) {
	command := routeros.ServerFieldCommand(idx, field)
	lines, err := q.run(ctx, command)
	if err != nil {
		return "", err
	}
	value, err := q.parser.Field(lines)
	return value, types.WithCommand(err, command)
}

// interfaceNetworks returns nil without error when the interface has no address
func (q *querier) interfaceNetworks(ctx context.Context, iface string) ([]types.Subnet, error) {
	command := routeros.InterfaceAddressesCommand(iface)
	lines, err := q.run(ctx, command)
	if err != nil {
		return nil, err
	}
	subnets, err := q.parser.InterfaceNetworks(routeros.JoinOutput(lines))
	if types.IsNoData(err) {
		return nil, nil
	}
	return subnets, types.WithCommand(err, command)
}

// leases returns nil without error when there are no leases
func (q *querier) leases(ctx context.Context, command string) ([]types.Subnet, error) {
	lines, err := q.run(ctx, command)
	if err != nil {
		return nil, err
	}
	leases, err := q.parser.Leases(routeros.JoinOutput(lines))
	if types.IsNoData(err) {
		return nil, nil
	}
	return leases, types.WithCommand(err, command)
}
