package routeros

import (
	"fmt"
	"strings"
)

// Queries issued against a router
const (
	IdentityCommand      = "/system identity print"
	ServerCountCommand   = "/ip dhcp-server print count-only"
	DynamicLeasesCommand = ":put [ /ip dhcp-server lease print as-value where dynamic=yes ]"
)

// Server fields fetched by index
const (
	ServerFieldName      = "name"
	ServerFieldInterface = "interface"
)

// ServerFieldCommand returns the query for one field of the DHCP server at index i
func ServerFieldCommand(i int, field string) string {
	return fmt.Sprintf(":put [ /ip dhcp-server get number=%d %s ]", i, field)
}

// InterfaceAddressesCommand returns the query for the enabled addresses of iface
func InterfaceAddressesCommand(iface string) string {
	return fmt.Sprintf(":put [ /ip address print as-value where interface=%s and disabled=no ]", Quote(iface))
}

// ReservedLeasesCommand returns the query for the bound static leases of server
func ReservedLeasesCommand(server string) string {
	return fmt.Sprintf(":put [ /ip dhcp-server lease print as-value where server=%s and dynamic=no and status=bound ]", Quote(server))
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)

// Quote returns s as a RouterOS string literal
func Quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
