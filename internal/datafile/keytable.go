package datafile

import "strings"

// KeyTableRow is one row of the previously written OpenDKIM key table,
// kept verbatim so a domain whose DNS update fails can have its prior
// signature configuration re-emitted byte for byte.
type KeyTableRow struct {
	Fields []string
}

// Domain extracts the mail domain from the row's second field, which has
// the form domain:selector:keypath.
func (r KeyTableRow) Domain() string {
	if len(r.Fields) < 2 {
		return ""
	}
	domain, _, _ := strings.Cut(r.Fields[1], ":")
	return domain
}

// Code returns the signing-table code in the row's first field.
func (r KeyTableRow) Code() string {
	if len(r.Fields) == 0 {
		return ""
	}
	return r.Fields[0]
}

// LoadKeyTable reads the prior key table. The file is optional: on the
// first run, or after it was removed, there is simply nothing to carry
// forward.
func LoadKeyTable(path string) []KeyTableRow {
	rows, err := ReadTable(path)
	if err != nil {
		return nil
	}
	table := make([]KeyTableRow, 0, len(rows))
	for _, row := range rows {
		table = append(table, KeyTableRow{Fields: row})
	}
	return table
}
