package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.KeysGenerated(2)
	m.DomainUpdated()
	m.DomainUpdated()
	m.DomainUpdated()
	m.DomainsFailed(1)
	m.RecordsPruned(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.keysGenerated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.domainsUpdated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.domainsFailed))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.recordsPruned))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genkeys.prom")

	m := New()
	m.KeysGenerated(1)
	m.DomainUpdated()
	m.RunCompleted(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "genkeys_keys_generated_total 1")
	assert.Contains(t, out, "genkeys_domains_updated_total 1")
	assert.Contains(t, out, "genkeys_domains_failed_total 0")
	assert.Contains(t, out, "genkeys_last_run_timestamp_seconds 1.7")

	// No stray temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genkeys.prom")

	first := New()
	first.KeysGenerated(5)
	require.NoError(t, first.WriteFile(path))

	second := New()
	require.NoError(t, second.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "genkeys_keys_generated_total 0")
}
