// Package signing regenerates the OpenDKIM key and signing tables after
// a rotation run and removes key artifacts no longer referenced by the
// published record history.
package signing

import (
	"strings"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
	"github.com/Trellmor/opendkim-genkeys/internal/keygen"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
)

// TableWriter rebuilds key.table and signing.table from the run outcome.
// Domains whose DNS update failed keep their previous rows so OpenDKIM
// continues signing with the key that is actually published.
type TableWriter struct {
	// OpenDKIMDir is the directory prefix for key paths in key.table.
	OpenDKIMDir string
	Log         *logging.Logger
}

// Build computes the full new contents of both tables. Rows for failed
// domains are taken from the prior key table; rows for updated domains
// reference each key's real selector.
func (w *TableWriter) Build(domains []datafile.DomainEntry, keys map[string]*keygen.Key, failed map[string]bool, prior []datafile.KeyTableRow) (keyRows, signingRows [][]string) {
	preserve := make(map[string]bool, len(failed))
	for domain := range failed {
		preserve[domain] = true
	}
	for _, entry := range domains {
		if keys[entry.KeyName] == nil {
			preserve[entry.Domain] = true
		}
	}

	for _, row := range prior {
		domain := row.Domain()
		if !preserve[domain] {
			continue
		}
		w.Log.Info("Preserving entries for %s", domain)
		keyRows = append(keyRows, row.Fields)
		signingRows = append(signingRows, []string{"*@" + domain, row.Code()})
	}

	for _, entry := range domains {
		if preserve[entry.Domain] {
			continue
		}
		key := keys[entry.KeyName]
		code := strings.ReplaceAll(entry.Domain, ".", "-")
		w.Log.Info("Adding entries for %s", entry.Domain)
		keyRows = append(keyRows, []string{
			code,
			entry.Domain + ":" + key.Selector + ":" + w.OpenDKIMDir + "/" + entry.KeyName + "." + key.Selector + ".key",
		})
		signingRows = append(signingRows, []string{"*@" + entry.Domain, code})
	}
	return keyRows, signingRows
}

// Write rebuilds both table files in place.
func (w *TableWriter) Write(keyTablePath, signingTablePath string, domains []datafile.DomainEntry, keys map[string]*keygen.Key, failed map[string]bool, prior []datafile.KeyTableRow) error {
	keyRows, signingRows := w.Build(domains, keys, failed, prior)
	if err := datafile.WriteTable(keyTablePath, keyRows); err != nil {
		return err
	}
	return datafile.WriteTable(signingTablePath, signingRows)
}
