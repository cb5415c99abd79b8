package signing

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
)

// Cleaner deletes generated key artifacts that no history record refers
// to anymore. Artifacts of failed domains are always kept, since their
// retirement never happened.
type Cleaner struct {
	// Dir is the working directory holding the <keyname>.<selector>.key
	// and .txt artifacts.
	Dir string
	Log *logging.Logger
}

// Run removes unreferenced artifacts and returns how many were deleted.
// The candidate set is every key or record file matching a known key
// name; files named by a history record, and all files of failed
// domains, are spared.
func (c *Cleaner) Run(domains []datafile.DomainEntry, history []datafile.UpdateRecord, failed map[string]bool) int {
	candidates := make(map[string]bool)
	for _, name := range datafile.KeyNames(domains) {
		for _, pattern := range []string{name + ".*.key", name + ".*.txt"} {
			matches, err := filepath.Glob(filepath.Join(c.Dir, pattern))
			if err != nil {
				continue
			}
			for _, match := range matches {
				candidates[filepath.Base(match)] = true
			}
		}
	}

	for _, rec := range history {
		keyName := datafile.KeyNameForDomain(domains, rec.Domain)
		if keyName == "" {
			continue
		}
		delete(candidates, keyName+"."+rec.Selector+".key")
		delete(candidates, keyName+"."+rec.Selector+".txt")
	}

	for domain := range failed {
		keyName := datafile.KeyNameForDomain(domains, domain)
		if keyName == "" {
			continue
		}
		for name := range candidates {
			if strings.HasPrefix(name, keyName+".") {
				delete(candidates, name)
			}
		}
	}

	removed := 0
	for name := range candidates {
		c.Log.Info("Removing obsolete file %s", name)
		if err := os.Remove(filepath.Join(c.Dir, name)); err != nil {
			c.Log.Warn("Failed removing obsolete file %s", name)
			continue
		}
		removed++
	}
	return removed
}
