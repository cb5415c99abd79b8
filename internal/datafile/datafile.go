// Package datafile reads and writes the line-oriented tabular state files
// the tool shares with the administrator: the domain registry, the DNS API
// registry, the DNS update history and the OpenDKIM key table.
//
// The format is whitespace-delimited fields, one record per line. Lines
// whose first field starts with '#' are comments. Files are rewritten
// wholesale, never patched in place.
package datafile

import (
	"fmt"
	"os"
	"strings"
)

// TimeLayout is the fixed textual timestamp format used in the update
// history file.
const TimeLayout = "2006-01-02T15:04:05"

// ReadTable parses a tabular file into its records. Comment lines and
// blank lines are skipped.
func ReadTable(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		rows = append(rows, fields)
	}
	return rows, nil
}

// WriteTable rewrites path with the given records, tab-separated. The
// write replaces the whole file; callers batch their mutations and call
// this once per run.
func WriteTable(path string, rows [][]string) error {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
