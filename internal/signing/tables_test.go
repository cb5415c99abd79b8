package signing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
	"github.com/Trellmor/opendkim-genkeys/internal/keygen"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(logging.LevelError)
}

var tableDomains = []datafile.DomainEntry{
	{Domain: "example.com", KeyName: "keyA", API: "null"},
	{Domain: "other.org", KeyName: "keyB", API: "null"},
}

var tableKeys = map[string]*keygen.Key{
	"keyA": {Selector: "202608"},
	"keyB": {Selector: "202608A"},
}

func TestBuildFreshTables(t *testing.T) {
	w := &TableWriter{OpenDKIMDir: "/etc/opendkim/keys", Log: testLogger()}

	keyRows, signingRows := w.Build(tableDomains, tableKeys, nil, nil)

	assert.Equal(t, [][]string{
		{"example-com", "example.com:202608:/etc/opendkim/keys/keyA.202608.key"},
		{"other-org", "other.org:202608A:/etc/opendkim/keys/keyB.202608A.key"},
	}, keyRows)
	assert.Equal(t, [][]string{
		{"*@example.com", "example-com"},
		{"*@other.org", "other-org"},
	}, signingRows)
}

func TestBuildPreservesFailedDomains(t *testing.T) {
	w := &TableWriter{OpenDKIMDir: "/etc/opendkim/keys", Log: testLogger()}

	prior := []datafile.KeyTableRow{
		{Fields: []string{"example-com", "example.com:202605:/etc/opendkim/keys/keyA.202605.key"}},
		{Fields: []string{"other-org", "other.org:202605:/etc/opendkim/keys/keyB.202605.key"}},
	}
	failed := map[string]bool{"other.org": true}

	keyRows, signingRows := w.Build(tableDomains, tableKeys, failed, prior)

	// Failed domain keeps its old row; updated domain gets a fresh one.
	assert.Equal(t, [][]string{
		{"other-org", "other.org:202605:/etc/opendkim/keys/keyB.202605.key"},
		{"example-com", "example.com:202608:/etc/opendkim/keys/keyA.202608.key"},
	}, keyRows)
	assert.Equal(t, [][]string{
		{"*@other.org", "other-org"},
		{"*@example.com", "example-com"},
	}, signingRows)
}

func TestBuildFailedDomainWithoutPriorRow(t *testing.T) {
	w := &TableWriter{OpenDKIMDir: "/etc/opendkim/keys", Log: testLogger()}

	failed := map[string]bool{"other.org": true}
	keyRows, signingRows := w.Build(tableDomains, tableKeys, failed, nil)

	// Nothing to preserve: the failed domain vanishes from both tables.
	require.Len(t, keyRows, 1)
	assert.Equal(t, "example-com", keyRows[0][0])
	require.Len(t, signingRows, 1)
	assert.Equal(t, "*@example.com", signingRows[0][0])
}

func TestBuildMissingKeyPreserves(t *testing.T) {
	w := &TableWriter{OpenDKIMDir: "/etc/opendkim/keys", Log: testLogger()}

	prior := []datafile.KeyTableRow{
		{Fields: []string{"other-org", "other.org:202605:/etc/opendkim/keys/keyB.202605.key"}},
	}
	keys := map[string]*keygen.Key{"keyA": {Selector: "202608"}}

	keyRows, _ := w.Build(tableDomains, keys, nil, prior)

	assert.Equal(t, [][]string{
		{"other-org", "other.org:202605:/etc/opendkim/keys/keyB.202605.key"},
		{"example-com", "example.com:202608:/etc/opendkim/keys/keyA.202608.key"},
	}, keyRows)
}

func TestWriteTables(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key.table")
	signingPath := filepath.Join(dir, "signing.table")

	w := &TableWriter{OpenDKIMDir: "/etc/opendkim/keys", Log: testLogger()}
	require.NoError(t, w.Write(keyPath, signingPath, tableDomains, tableKeys, nil, nil))

	keyData, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	assert.Equal(t,
		"example-com\texample.com:202608:/etc/opendkim/keys/keyA.202608.key\n"+
			"other-org\tother.org:202608A:/etc/opendkim/keys/keyB.202608A.key\n",
		string(keyData))

	signingData, err := os.ReadFile(signingPath)
	require.NoError(t, err)
	assert.Equal(t,
		"*@example.com\texample-com\n*@other.org\tother-org\n",
		string(signingData))
}
