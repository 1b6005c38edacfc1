package flatfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/storybench/pkg/types"
)

// readCSV reads a CSV file with a header row. It returns the header found in
// the file and one Row per record. A missing or empty file yields no header
// and no rows. Records shorter than the header leave the trailing columns
// empty; cells beyond the header are dropped.
func readCSV(path string) ([]string, []types.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	var rows []types.Row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}
		row := make(types.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// writeCSV atomically writes header and rows to path using the temp-file,
// fsync, rename pattern. Columns a row lacks are written as empty strings.
func writeCSV(path string, header []string, rows []types.Row) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".csv-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	bw := bufio.NewWriter(tmp)
	w := csv.NewWriter(bw)
	if err := w.Write(header); err != nil {
		return fail(fmt.Errorf("writing header: %w", err))
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fail(fmt.Errorf("flushing csv: %w", err))
	}
	if err := bw.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// mergeHeader returns columns followed by any column of existing that
// columns does not name, so legacy extra columns survive a rewrite.
func mergeHeader(columns, existing []string) []string {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	header := append([]string(nil), columns...)
	for _, c := range existing {
		if !known[c] {
			header = append(header, c)
			known[c] = true
		}
	}
	return header
}

// ReadFile reads a CSV table file outside of any backend. A missing file
// yields no rows.
func ReadFile(path string) ([]types.Row, error) {
	_, rows, err := readCSV(path)
	return rows, err
}
