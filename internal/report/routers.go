package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"leasemeter/internal/types"
)

// HeaderMode tells ReadRouters how to treat the first row of the router list
type HeaderMode string

const (
	// HeaderAuto skips the first row when its address column is a known
	// column name or is not a valid router address
	HeaderAuto HeaderMode = "auto"
	// HeaderPresent always skips the first row
	HeaderPresent HeaderMode = "present"
	// HeaderAbsent reads the first row as a router
	HeaderAbsent HeaderMode = "absent"
)

// headerAddressNames are address column names that also pass as hostnames
var headerAddressNames = map[string]bool{
	"address":        true,
	"ip":             true,
	"host":           true,
	"hostname":       true,
	"router":         true,
	"router_ip":      true,
	"router_address": true,
}

// ParseHeaderMode parses a header mode name, empty meaning HeaderAuto
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch m := HeaderMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return HeaderAuto, nil
	case HeaderAuto, HeaderPresent, HeaderAbsent:
		return m, nil
	}
	return "", fmt.Errorf("invalid header mode %q, expected auto, present or absent", s)
}

// LoadRouters reads the router list file
func LoadRouters(path string, header HeaderMode) ([]types.Router, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open router list: %w", err)
	}
	defer f.Close()

	routers, err := ReadRouters(f, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read router list %s: %w", path, err)
	}
	return routers, nil
}

// ReadRouters parses (label, address) rows. Blank lines and "#" comments
// are skipped; the first row is handled according to header.
func ReadRouters(r io.Reader, header HeaderMode) ([]types.Router, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var routers []types.Router
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		if first && header == HeaderPresent {
			continue
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected label and address, got %d fields", line, len(record))
		}
		router := types.Router{
			Label:   strings.TrimSpace(record[0]),
			Address: strings.TrimSpace(record[1]),
		}
		err = router.Validate()
		if first && header != HeaderAbsent && (err != nil || isHeaderName(router.Address)) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		routers = append(routers, router)
	}
	return routers, nil
}

func isHeaderName(address string) bool {
	name := strings.ToLower(address)
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	return headerAddressNames[name]
}
