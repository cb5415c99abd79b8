package signing

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
)

func writeArtifacts(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
}

func remaining(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestCleanerRemovesUnreferenced(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir,
		"keyA.202601.key", "keyA.202601.txt", // obsolete
		"keyA.202608.key", "keyA.202608.txt", // still in history
		"keyB.202608.key", // still in history
		"unrelated.file",  // not a key artifact
	)

	domains := []datafile.DomainEntry{
		{Domain: "example.com", KeyName: "keyA"},
		{Domain: "other.org", KeyName: "keyB"},
	}
	history := []datafile.UpdateRecord{
		{Domain: "example.com", Selector: "202608"},
		{Domain: "other.org", Selector: "202608"},
	}

	c := &Cleaner{Dir: dir, Log: testLogger()}
	removed := c.Run(domains, history, nil)

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{
		"keyA.202608.key", "keyA.202608.txt", "keyB.202608.key", "unrelated.file",
	}, remaining(t, dir))
}

func TestCleanerSparesFailedDomains(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir,
		"keyA.202601.key", // keyA's domain failed, spare everything
		"keyA.202601.txt",
		"keyB.202601.key", // obsolete
	)

	domains := []datafile.DomainEntry{
		{Domain: "example.com", KeyName: "keyA"},
		{Domain: "other.org", KeyName: "keyB"},
	}
	history := []datafile.UpdateRecord{
		{Domain: "other.org", Selector: "202608"},
	}
	failed := map[string]bool{"example.com": true}

	c := &Cleaner{Dir: dir, Log: testLogger()}
	removed := c.Run(domains, history, failed)

	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"keyA.202601.key", "keyA.202601.txt"}, remaining(t, dir))
}

func TestCleanerIgnoresHistoryForUnknownDomains(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, "keyA.202601.key")

	domains := []datafile.DomainEntry{
		{Domain: "example.com", KeyName: "keyA"},
	}
	// A record for a domain no longer in the registry cannot protect
	// anything, and must not crash the pass either.
	history := []datafile.UpdateRecord{
		{Domain: "gone.example", Selector: "202601"},
	}

	c := &Cleaner{Dir: dir, Log: testLogger()}
	removed := c.Run(domains, history, nil)

	assert.Equal(t, 1, removed)
	assert.Empty(t, remaining(t, dir))
}
