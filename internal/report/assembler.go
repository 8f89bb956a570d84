package report

import (
	"sync"

	"leasemeter/internal/types"
)

// Assembler collects the usage rows of every inspected router.
// Each router's rows are appended as one batch.
type Assembler struct {
	mu   sync.Mutex
	rows []types.SubnetUsage
}

// NewAssembler creates an empty assembler
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Add appends a batch of rows. It is safe for concurrent use.
func (a *Assembler) Add(rows []types.SubnetUsage) {
	if len(rows) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, rows...)
}

// Rows returns a copy of the collected rows in insertion order
func (a *Assembler) Rows() []types.SubnetUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.SubnetUsage, len(a.rows))
	copy(out, a.rows)
	return out
}

// Len returns the number of collected rows
func (a *Assembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rows)
}
