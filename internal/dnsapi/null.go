package dnsapi

import (
	"context"
	"time"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
)

// NullProvider is the reserved no-op backend. Its Add always reports
// success without touching any DNS, and its Delete reports unsupported so
// history records are never pruned on its account. It serves domains with
// no real API configured and acts as the forced backend in dry-run mode.
type NullProvider struct {
	Log *logging.Logger
	// now is injectable for tests.
	now func() time.Time
}

// NewNullProvider creates the null backend.
func NewNullProvider(log *logging.Logger) *NullProvider {
	return &NullProvider{Log: log, now: time.Now}
}

func (p *NullProvider) Name() string { return datafile.NullAPI }

// Add reports a failure-free no-op success.
func (p *NullProvider) Add(ctx context.Context, apiParams, domainParams []string, key KeyData) AddResult {
	p.Log.Debug("null API: would publish %s", key.RecordName())
	return AddResult{OK: true, Domain: key.Domain, Selector: key.Selector, CreatedAt: p.now().UTC()}
}

// Delete reports unsupported; there is nothing the null backend could
// have published, but it also cannot vouch for remote state.
func (p *NullProvider) Delete(ctx context.Context, apiParams, domainParams []string, rec datafile.UpdateRecord) DeleteOutcome {
	return DeleteUnsupported
}

// FailProvider always fails. It exists as test scaffolding: under the
// forced-null dry-run mode an API literally named "fail" keeps failing so
// failure paths stay exercisable end to end.
type FailProvider struct {
	Log *logging.Logger
}

// NewFailProvider creates the always-failing backend.
func NewFailProvider(log *logging.Logger) *FailProvider {
	return &FailProvider{Log: log}
}

func (p *FailProvider) Name() string { return "fail" }

func (p *FailProvider) Add(ctx context.Context, apiParams, domainParams []string, key KeyData) AddResult {
	p.Log.Debug("fail API: refusing to publish %s", key.RecordName())
	return AddResult{}
}

func (p *FailProvider) Delete(ctx context.Context, apiParams, domainParams []string, rec datafile.UpdateRecord) DeleteOutcome {
	return DeleteFailed
}
