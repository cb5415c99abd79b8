package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "/etc/opendkim/keys", cfg.OpenDKIMDir)
	assert.Equal(t, "opendkim-genkey", cfg.KeyGenCommand)
	assert.Equal(t, 2048, cfg.KeyBits)
	assert.Equal(t, 70*24*time.Hour, cfg.Retention())
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout())
	assert.False(t, cfg.NeverUpdateDNS)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genkeys.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
opendkim_dir: /srv/dkim/keys
working_dir: /var/lib/genkeys
never_update_dns: true
retention_days: 35
provider_timeout_sec: 10
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/dkim/keys", cfg.OpenDKIMDir)
	assert.Equal(t, "/var/lib/genkeys", cfg.WorkingDir)
	assert.True(t, cfg.NeverUpdateDNS)
	assert.Equal(t, 35*24*time.Hour, cfg.Retention())
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout())
	// Unset fields keep their defaults.
	assert.Equal(t, "domains.ini", cfg.DomainFile)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().OpenDKIMDir, cfg.OpenDKIMDir)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genkeys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("opendkim_dir: [unterminated"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GENKEYS_OPENDKIM_DIR", "/env/keys")
	t.Setenv("GENKEYS_NEVER_UPDATE_DNS", "true")
	t.Setenv("GENKEYS_RETENTION_DAYS", "14")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/env/keys", cfg.OpenDKIMDir)
	assert.True(t, cfg.NeverUpdateDNS)
	assert.Equal(t, 14, cfg.RetentionDays)
}

func TestPath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "domains.ini", cfg.Path("domains.ini"))

	cfg.WorkingDir = "/var/lib/genkeys"
	assert.Equal(t, "/var/lib/genkeys/domains.ini", cfg.Path("domains.ini"))
}
