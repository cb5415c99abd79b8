package datafile

import (
	"os"

	"github.com/Trellmor/opendkim-genkeys/internal/errors"
)

// NullAPI is the reserved name of the no-op DNS API. Domains without an
// explicit API fall back to it, and the API registry always contains it.
const NullAPI = "null"

// DomainEntry is one row of the domain registry: a mail domain, the key
// name it signs with, the DNS API used to publish its records and any
// API-specific per-domain parameters.
type DomainEntry struct {
	Domain  string
	KeyName string
	API     string
	Params  []string
}

// LoadDomains reads the domain registry. An unreadable or empty registry
// is a fatal configuration error; without it there is nothing to do.
func LoadDomains(path string) ([]DomainEntry, error) {
	rows, err := ReadTable(path)
	if err != nil {
		msg := "error accessing file"
		if os.IsNotExist(err) {
			msg = "no domain definitions found"
		}
		return nil, &errors.ConfigError{File: path, Message: msg, Err: err}
	}
	if len(rows) == 0 {
		return nil, &errors.ConfigError{File: path, Message: "no domain definitions found"}
	}

	entries := make([]DomainEntry, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			return nil, &errors.ConfigError{File: path, Message: "domain entry needs at least a domain and a key name"}
		}
		e := DomainEntry{Domain: row[0], KeyName: row[1], API: NullAPI}
		if len(row) > 2 {
			e.API = row[2]
			e.Params = append([]string(nil), row[3:]...)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// KeyNames returns the distinct key names referenced by the domain
// entries, in first-seen order. One key is generated per name.
func KeyNames(entries []DomainEntry) []string {
	var names []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if !seen[e.KeyName] {
			seen[e.KeyName] = true
			names = append(names, e.KeyName)
		}
	}
	return names
}

// KeyNameForDomain returns the key name the registry assigns to domain,
// or "" if the domain is not registered.
func KeyNameForDomain(entries []DomainEntry, domain string) string {
	for _, e := range entries {
		if e.Domain == domain {
			return e.KeyName
		}
	}
	return ""
}
