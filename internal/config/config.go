// Package config holds the run configuration. The configuration is
// assembled once at startup from defaults, an optional genkeys.yaml and
// GENKEYS_* environment variables, then treated as immutable for the run.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Trellmor/opendkim-genkeys/internal/errors"
)

// Config is the tool's settings. Paths to the data files are resolved
// against WorkingDir.
type Config struct {
	// OpenDKIMDir is where the mail server expects the key files; it is
	// embedded into the generated key table, not used for local I/O.
	OpenDKIMDir string `yaml:"opendkim_dir"`
	// WorkingDir holds the data files and generated key artifacts.
	WorkingDir string `yaml:"working_dir"`
	// NeverUpdateDNS permanently disables DNS updates regardless of
	// command-line flags.
	NeverUpdateDNS bool `yaml:"never_update_dns"`
	// KeyGenCommand is the external key generation tool.
	KeyGenCommand string `yaml:"keygen_command"`
	// KeyBits is the RSA key size passed to the tool.
	KeyBits int `yaml:"key_bits"`
	// RetentionDays is the age beyond which published DNS records are
	// eligible for deletion.
	RetentionDays int `yaml:"retention_days"`
	// ProviderTimeoutSec bounds every DNS API call.
	ProviderTimeoutSec int `yaml:"provider_timeout_sec"`
	// MetricsFile, when set, receives node-exporter textfile metrics
	// after each run.
	MetricsFile string `yaml:"metrics_file"`

	DomainFile  string `yaml:"domain_file"`
	DNSAPIFile  string `yaml:"dnsapi_file"`
	HistoryFile string `yaml:"history_file"`
}

// Default returns the built-in settings, matching a conventional
// OpenDKIM installation.
func Default() Config {
	return Config{
		OpenDKIMDir:        "/etc/opendkim/keys",
		WorkingDir:         "",
		KeyGenCommand:      "opendkim-genkey",
		KeyBits:            2048,
		RetentionDays:      70,
		ProviderTimeoutSec: 30,
		DomainFile:         "domains.ini",
		DNSAPIFile:         "dnsapi.ini",
		HistoryFile:        "dns_update_data.ini",
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// it exists) and environment overrides. A present-but-broken settings
// file is an error; a missing one is not.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, &errors.ConfigError{File: path, Message: "invalid settings file", Err: err}
			}
		case !os.IsNotExist(err):
			return Config{}, &errors.ConfigError{File: path, Message: "error accessing settings file", Err: err}
		}
	}

	// .env is a convenience for cron wrappers; ignore when absent.
	_ = godotenv.Load()
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GENKEYS_OPENDKIM_DIR"); v != "" {
		c.OpenDKIMDir = v
	}
	if v := os.Getenv("GENKEYS_WORKING_DIR"); v != "" {
		c.WorkingDir = v
	}
	if v := os.Getenv("GENKEYS_KEYGEN_COMMAND"); v != "" {
		c.KeyGenCommand = v
	}
	if v := os.Getenv("GENKEYS_NEVER_UPDATE_DNS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.NeverUpdateDNS = b
		}
	}
	if v := os.Getenv("GENKEYS_METRICS_FILE"); v != "" {
		c.MetricsFile = v
	}
	if v := os.Getenv("GENKEYS_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RetentionDays = n
		}
	}
}

// Retention returns the history retention window as a duration.
func (c Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// ProviderTimeout returns the per-call DNS API timeout.
func (c Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSec) * time.Second
}

// Path resolves a data file name against the working directory.
func (c Config) Path(name string) string {
	if c.WorkingDir == "" {
		return name
	}
	return filepath.Join(c.WorkingDir, name)
}
