package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"leasemeter/internal/routeros"
	"leasemeter/internal/session"
	"leasemeter/internal/types"
)

// fakeRouter scripts the command output of one router
type fakeRouter struct {
	outputs map[string][]string
	errs    map[string]error
}

func newFakeRouter(identity string) *fakeRouter {
	return &fakeRouter{
		outputs: map[string][]string{
			routeros.IdentityCommand:    {"  name: " + identity},
			routeros.ServerCountCommand: {"0"},
		},
		errs: map[string]error{},
	}
}

// withServer adds a DHCP server with its interface addresses and static leases
func (r *fakeRouter) withServer(name, iface, addresses, reserved string) *fakeRouter {
	idx := len(r.serverNames())
	r.outputs[routeros.ServerFieldCommand(idx, routeros.ServerFieldName)] = []string{name}
	r.outputs[routeros.ServerFieldCommand(idx, routeros.ServerFieldInterface)] = []string{iface}
	r.outputs[routeros.ServerCountCommand] = []string{fmt.Sprint(idx + 1)}
	r.outputs[routeros.InterfaceAddressesCommand(iface)] = []string{addresses}
	r.outputs[routeros.ReservedLeasesCommand(name)] = []string{reserved}
	return r
}

func (r *fakeRouter) withDynamic(leases string) *fakeRouter {
	r.outputs[routeros.DynamicLeasesCommand] = []string{leases}
	return r
}

func (r *fakeRouter) serverNames() []string {
	var names []string
	for i := 0; ; i++ {
		if _, ok := r.outputs[routeros.ServerFieldCommand(i, routeros.ServerFieldName)]; !ok {
			return names
		}
		names = append(names, r.outputs[routeros.ServerFieldCommand(i, routeros.ServerFieldName)][0])
	}
}

type fakeSession struct {
	router   *fakeRouter
	mu       sync.Mutex
	commands []string
	closed   bool
}

func (s *fakeSession) Run(_ context.Context, command string) ([]string, error) {
	s.mu.Lock()
	s.commands = append(s.commands, command)
	s.mu.Unlock()

	if err, ok := s.router.errs[command]; ok {
		return nil, err
	}
	// Unknown queries behave like RouterOS "print" with no match
	return s.router.outputs[command], nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// fakeConnector maps addresses to scripted routers. Unknown addresses fail
// to connect.
type fakeConnector struct {
	mu       sync.Mutex
	routers  map[string]*fakeRouter
	sessions map[string]*fakeSession
	attempts map[string]int
	// failures makes the first n connects to an address fail
	failures map[string]int
	// connect is called before every connect when set
	connect func(address string)
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		routers:  map[string]*fakeRouter{},
		sessions: map[string]*fakeSession{},
		attempts: map[string]int{},
		failures: map[string]int{},
	}
}

func (c *fakeConnector) Connect(_ context.Context, address string) (session.Session, error) {
	if c.connect != nil {
		c.connect(address)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempts[address]++
	if c.attempts[address] <= c.failures[address] {
		return nil, &types.ConnectionError{Address: address, Err: errors.New("i/o timeout")}
	}
	r, ok := c.routers[address]
	if !ok {
		return nil, &types.ConnectionError{Address: address, Err: errors.New("connection refused")}
	}
	s := &fakeSession{router: r}
	c.sessions[address] = s
	return s, nil
}
