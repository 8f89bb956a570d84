package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"leasemeter/internal/types"
)

// Write writes the header and one record per row
func Write(w io.Writer, rows []types.SubnetUsage) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.CSVHeader()); err != nil {
		return err
	}
	for i := range rows {
		if err := cw.Write(rows[i].CSVRecord()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes rows to path. When rows is empty nothing is written and
// types.ErrNoRows is returned. The file is replaced atomically.
func WriteFile(path string, rows []types.SubnetUsage) error {
	if len(rows) == 0 {
		return types.ErrNoRows
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err := Write(tmp, rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set report permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}
