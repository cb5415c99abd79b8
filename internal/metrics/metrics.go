// Package metrics collects run counters and exports them in Prometheus
// text format for the node_exporter textfile collector. The tool is a
// batch job, so there is no scrape endpoint; each run rewrites the file.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the per-run counters on a private registry, so repeated
// construction in tests never trips duplicate registration.
type Metrics struct {
	registry *prometheus.Registry

	keysGenerated  prometheus.Counter
	domainsUpdated prometheus.Counter
	domainsFailed  prometheus.Counter
	recordsPruned  prometheus.Counter
	lastRun        prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		keysGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genkeys_keys_generated_total",
			Help: "Signing keys generated during the run",
		}),
		domainsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genkeys_domains_updated_total",
			Help: "Domains whose DNS record update succeeded",
		}),
		domainsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genkeys_domains_failed_total",
			Help: "Domains whose DNS record update failed",
		}),
		recordsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genkeys_records_pruned_total",
			Help: "Expired DNS records removed during the run",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "genkeys_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}),
	}
	m.registry.MustRegister(m.keysGenerated, m.domainsUpdated, m.domainsFailed, m.recordsPruned, m.lastRun)
	return m
}

func (m *Metrics) KeysGenerated(n int) { m.keysGenerated.Add(float64(n)) }

func (m *Metrics) DomainUpdated() { m.domainsUpdated.Inc() }

func (m *Metrics) DomainsFailed(n int) { m.domainsFailed.Add(float64(n)) }

func (m *Metrics) RecordsPruned(n int) { m.recordsPruned.Add(float64(n)) }

func (m *Metrics) RunCompleted(t time.Time) { m.lastRun.Set(float64(t.Unix())) }

// WriteFile exports the registry in text exposition format. The file is
// written to a temporary sibling and renamed, since the textfile
// collector may read it at any moment.
func (m *Metrics) WriteFile(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			tmp.Close()
			return fmt.Errorf("encoding metrics: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
