package inventory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"leasemeter/internal/retry"
	"leasemeter/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func routerWithLan(identity, lan string) *fakeRouter {
	return newFakeRouter(identity).
		withServer("lan", "bridge", ".id=*1;address="+lan+";interface=bridge", "")
}

func TestManagerRunSkipsFailedRouters(t *testing.T) {
	c := newFakeConnector()
	c.routers["10.0.0.1"] = routerWithLan("r1", "192.168.1.1/24")
	c.routers["10.0.0.3"] = routerWithLan("r3", "192.168.3.1/24").
		withServer("guest", "vlan9", ".id=*1;address=192.168.9.1/24", "")
	bad := routerWithLan("r4", "192.168.4.1/24")
	bad.outputs["/system identity print"] = []string{"garbage"}
	c.routers["10.0.0.4"] = bad

	routers := []types.Router{
		{Label: "one", Address: "10.0.0.1"},
		{Label: "two", Address: "10.0.0.2"}, // unreachable
		{Label: "three", Address: "10.0.0.3"},
		{Label: "four", Address: "10.0.0.4"}, // malformed
	}

	m := NewManager(newTestInspector(t, c), 2, nil, zaptest.NewLogger(t))
	assembler, summary := m.Run(context.Background(), routers)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 1, summary.Unreachable)
	assert.Equal(t, 1, summary.Malformed)
	assert.Equal(t, 3, summary.Rows)

	rows := assembler.Rows()
	require.Len(t, rows, 3)

	byRouter := map[string][]string{}
	for _, row := range rows {
		byRouter[row.Router] = append(byRouter[row.Router], row.Network.String())
	}
	assert.Equal(t, []string{"192.168.1.0/24"}, byRouter["r1"])
	assert.Equal(t, []string{"192.168.3.0/24", "192.168.9.0/24"}, byRouter["r3"], "a router's rows stay together and in order")
	assert.NotContains(t, byRouter, "r4")
}

func TestManagerRunAllUnreachable(t *testing.T) {
	m := NewManager(newTestInspector(t, newFakeConnector()), 40, nil, zaptest.NewLogger(t))
	assembler, summary := m.Run(context.Background(), []types.Router{{Address: "a"}, {Address: "b"}})

	assert.Zero(t, assembler.Len())
	assert.Equal(t, 2, summary.Unreachable)
	assert.Zero(t, summary.Rows)
}

func TestManagerRunRespectsConcurrency(t *testing.T) {
	const limit = 3

	c := newFakeConnector()
	var routers []types.Router
	for i := 0; i < 20; i++ {
		addr := fmt.Sprintf("10.0.1.%d", i)
		c.routers[addr] = routerWithLan(addr, fmt.Sprintf("172.16.%d.1/24", i))
		routers = append(routers, types.Router{Address: addr})
	}

	var inFlight, maxInFlight atomic.Int32
	c.connect = func(string) {
		n := inFlight.Add(1)
		for {
			cur := maxInFlight.Load()
			if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
	}

	m := NewManager(newTestInspector(t, c), limit, nil, zaptest.NewLogger(t))
	assembler, summary := m.Run(context.Background(), routers)

	assert.Equal(t, 20, summary.Succeeded)
	assert.Equal(t, 20, assembler.Len())
	assert.LessOrEqual(t, maxInFlight.Load(), int32(limit))
}

func TestManagerRetriesConnectionFailures(t *testing.T) {
	c := newFakeConnector()
	c.routers["flaky"] = routerWithLan("flaky", "192.168.50.1/24")
	c.failures["flaky"] = 2

	cfg := &retry.Config{Enable: true, Attempts: 3, Interval: time.Millisecond}
	m := NewManager(newTestInspector(t, c), 1, cfg, zaptest.NewLogger(t))
	assembler, summary := m.Run(context.Background(), []types.Router{{Address: "flaky"}})

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, assembler.Len())
	assert.Equal(t, 3, c.attempts["flaky"])
}

func TestManagerDoesNotRetryMalformed(t *testing.T) {
	c := newFakeConnector()
	r := routerWithLan("r", "192.168.50.1/24")
	r.outputs["/system identity print"] = []string{"nope"}
	c.routers["r"] = r

	cfg := &retry.Config{Enable: true, Attempts: 5, Interval: time.Millisecond}
	m := NewManager(newTestInspector(t, c), 1, cfg, zaptest.NewLogger(t))
	_, summary := m.Run(context.Background(), []types.Router{{Address: "r"}})

	assert.Equal(t, 1, summary.Malformed)
	assert.Equal(t, 1, c.attempts["r"])
}

// stubInspector returns canned results keyed by address
type stubInspector struct {
	mu      sync.Mutex
	results map[string]*Result
	calls   int
}

func (s *stubInspector) Inspect(_ context.Context, router types.Router) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if r, ok := s.results[router.Address]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("unexpected router %s", router.Address)
}

func TestManagerCountsOtherFailures(t *testing.T) {
	stub := &stubInspector{results: map[string]*Result{
		"ok": {Name: "ok", Usage: []types.SubnetUsage{{Router: "ok", Network: types.MustParseSubnet("10.0.0.0/24")}}},
	}}

	m := NewManager(stub, 0, nil, zaptest.NewLogger(t))
	assembler, summary := m.Run(context.Background(), []types.Router{{Address: "ok"}, {Address: "other"}})

	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Unreachable)
	assert.Zero(t, summary.Malformed)
	assert.Equal(t, 1, assembler.Len())
}
