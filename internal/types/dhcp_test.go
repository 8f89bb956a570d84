package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterValidate(t *testing.T) {
	valid := []string{"192.168.88.1", "10.0.0.1:2222", "router1.example.net", "edge-01", "[2001:db8::1]:22", "2001:db8::1"}
	for _, addr := range valid {
		r := Router{Label: "r", Address: addr}
		assert.NoError(t, r.Validate(), addr)
	}

	invalid := []string{"", "bad host", "10.0.0.1:0", "10.0.0.1:99999", "-edge"}
	for _, addr := range invalid {
		r := Router{Label: "r", Address: addr}
		assert.Error(t, r.Validate(), addr)
	}
}

func TestRouterString(t *testing.T) {
	assert.Equal(t, "core", Router{Label: "core", Address: "10.0.0.1"}.String())
	assert.Equal(t, "10.0.0.1", Router{Address: "10.0.0.1"}.String())
}

func TestSubnetUsageCSV(t *testing.T) {
	assert.Equal(t, []string{
		"router", "server", "network", "available",
		"total_leases", "dynamic", "reserved", "public", "private",
	}, CSVHeader())

	u := SubnetUsage{
		Router:      "edge",
		Server:      "dhcp1",
		Network:     MustParseSubnet("192.168.1.0/24"),
		Available:   253,
		TotalLeases: 2,
		Dynamic:     1,
		Reserved:    1,
		Private:     2,
	}
	assert.Equal(t, []string{"edge", "dhcp1", "192.168.1.0/24", "253", "2", "1", "1", "0", "2"}, u.CSVRecord())

	// The header is a copy
	h := CSVHeader()
	h[0] = "changed"
	assert.Equal(t, "router", CSVHeader()[0])
}

func TestSubnetUsageCheck(t *testing.T) {
	u := SubnetUsage{Network: MustParseSubnet("10.0.0.0/24"), TotalLeases: 3, Dynamic: 2, Reserved: 1, Public: 1, Private: 2}
	require.NoError(t, u.Check())

	bad := u
	bad.Dynamic = 5
	assert.Error(t, bad.Check())

	bad = u
	bad.Public = 0
	assert.Error(t, bad.Check())
}

func TestSubnetUsageUtilization(t *testing.T) {
	u := SubnetUsage{Available: 200, TotalLeases: 50}
	assert.InDelta(t, 0.25, u.Utilization(), 1e-9)
	assert.Zero(t, (&SubnetUsage{TotalLeases: 4}).Utilization())
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	connErr := fmt.Errorf("inspect: %w", &ConnectionError{Address: "10.0.0.1:22", Err: cause})
	assert.True(t, IsConnectionFailure(connErr))
	assert.False(t, IsMalformed(connErr))
	assert.ErrorIs(t, connErr, cause)
	assert.Contains(t, connErr.Error(), "10.0.0.1:22")

	malformed := Malformed("name MikroTik", "missing delimiter")
	assert.True(t, IsMalformed(malformed))
	assert.False(t, IsConnectionFailure(malformed))

	direct := WithCommand(malformed, "/system identity print")
	assert.Contains(t, direct.Error(), `to "/system identity print"`)
	assert.NotContains(t, malformed.Error(), "/system identity print", "original is left unchanged")

	wrapped := WithCommand(fmt.Errorf("identity: %w", malformed), "/system identity print")
	var me *MalformedResponseError
	require.ErrorAs(t, wrapped, &me)
	assert.Equal(t, "/system identity print", me.Command)
	assert.Contains(t, wrapped.Error(), "identity: malformed response")
	assert.Contains(t, wrapped.Error(), `to "/system identity print"`)
	assert.Contains(t, fmt.Errorf("router r1: %w", wrapped).Error(), `to "/system identity print"`)

	// The first command attached wins
	assert.Equal(t, wrapped, WithCommand(wrapped, "/other"))
	again := WithCommand(direct, "/other")
	require.ErrorAs(t, again, &me)
	assert.Equal(t, "/system identity print", me.Command)

	assert.NoError(t, WithCommand(nil, "/x"))
	assert.Equal(t, cause, WithCommand(cause, "/x"))

	assert.True(t, IsNoData(fmt.Errorf("leases: %w", ErrNoData)))
	assert.False(t, IsNoData(malformed))
}

func TestMalformedTruncatesOutput(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	err := Malformed(string(long), "bad")
	assert.Less(t, len(err.Error()), 200)
}
