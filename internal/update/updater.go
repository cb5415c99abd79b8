// Package update orchestrates the per-domain DNS work: retiring records
// past the retention cutoff and publishing the run's new selector. A
// failing domain never aborts the others; it is recorded in the failed
// set so the signing tables preserve its previous configuration.
package update

import (
	"context"
	"time"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
	"github.com/Trellmor/opendkim-genkeys/internal/dnsapi"
	"github.com/Trellmor/opendkim-genkeys/internal/keygen"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
)

// Updater runs the update state machine over all domains of a run.
type Updater struct {
	Registry *dnsapi.Registry
	// APIs maps API names to their registry parameters.
	APIs map[string][]string
	Log  *logging.Logger
	// Retention is the age past which published records are retired.
	Retention time.Duration
	// Cleanup enables retiring old records before publishing.
	Cleanup bool
	// ForceNull substitutes the null backend for every API except the
	// always-failing "fail" scaffolding backend.
	ForceNull bool
	// Timeout bounds each individual backend call.
	Timeout time.Duration
	// Now is injectable for tests.
	Now func() time.Time
}

// Result is the outcome of one orchestrated run.
type Result struct {
	// History is the full record collection after pruning and appends.
	// The caller persists it in a single batched write.
	History []datafile.UpdateRecord
	// Failed holds the domains whose update did not complete.
	Failed map[string]bool
	// Pruned counts history records successfully retired.
	Pruned int
}

// Run processes every domain and returns the mutated history plus the
// failed-domain set. The input history slice is not modified.
func (u *Updater) Run(ctx context.Context, domains []datafile.DomainEntry, keys map[string]*keygen.Key, history []datafile.UpdateRecord) Result {
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	cutoff := now().Add(-u.Retention)

	result := Result{
		History: append([]datafile.UpdateRecord(nil), history...),
		Failed:  make(map[string]bool),
	}

	for _, entry := range domains {
		provider := u.resolveProvider(entry)
		if provider == nil {
			result.Failed[entry.Domain] = true
			continue
		}
		key, ok := keys[entry.KeyName]
		if !ok {
			u.Log.Error("No key %s generated for %s", entry.KeyName, entry.Domain)
			result.Failed[entry.Domain] = true
			continue
		}

		if u.Cleanup {
			result.History = u.cleanupDomain(ctx, provider, entry, cutoff, result.History, &result.Pruned)
		}

		u.Log.Info("Updating selector %s for %s with key %s", key.Selector, entry.Domain, entry.KeyName)
		added := u.publish(ctx, provider, entry, key)
		if added == nil {
			u.Log.Error("Error adding new record for %s with key %s via %s API",
				entry.Domain, entry.KeyName, provider.Name())
			result.Failed[entry.Domain] = true
			continue
		}
		result.History = append(result.History, *added)
	}

	return result
}

// resolveProvider picks the backend for a domain entry, honoring the
// forced-null override. A nil return means the domain fails this run.
func (u *Updater) resolveProvider(entry datafile.DomainEntry) dnsapi.Provider {
	name := entry.API
	if u.ForceNull && name != "fail" {
		return u.Registry.Null()
	}
	provider, err := u.Registry.Resolve(name)
	if err != nil {
		u.Log.Error("No DNS API %s found for %s", name, entry.Domain)
		return nil
	}
	if _, ok := u.APIs[name]; !ok {
		u.Log.Error("No DNS API definition %s found for %s", name, entry.Domain)
		return nil
	}
	return provider
}

// cleanupDomain retires this domain's records past the cutoff. A record
// is pruned only when the backend confirms deletion; failed or
// unsupported deletions conservatively retain the record, since its
// remote state is unknown.
func (u *Updater) cleanupDomain(ctx context.Context, provider dnsapi.Provider, entry datafile.DomainEntry, cutoff time.Time, history []datafile.UpdateRecord, pruned *int) []datafile.UpdateRecord {
	kept := history[:0:0]
	logged := false
	for _, rec := range history {
		if rec.Domain != entry.Domain || !rec.CreatedAt.Before(cutoff) {
			kept = append(kept, rec)
			continue
		}
		if !logged {
			u.Log.Info("Removing old records for %s", entry.Domain)
			logged = true
		}
		callCtx, cancel := u.callContext(ctx)
		outcome := provider.Delete(callCtx, u.APIs[entry.API], entry.Params, rec)
		cancel()
		switch outcome {
		case dnsapi.DeleteSucceeded:
			u.Log.Info("Removed %s:%s created at %s", rec.Domain, rec.Selector,
				rec.CreatedAt.Format(datafile.TimeLayout))
			*pruned++
		case dnsapi.DeleteUnsupported:
			u.Log.Info("No support for removing old record for %s:%s via %s API",
				rec.Domain, rec.Selector, provider.Name())
			kept = append(kept, rec)
		default:
			u.Log.Error("Error removing old record for %s:%s via %s API",
				rec.Domain, rec.Selector, provider.Name())
			kept = append(kept, rec)
		}
	}
	return kept
}

func (u *Updater) publish(ctx context.Context, provider dnsapi.Provider, entry datafile.DomainEntry, key *keygen.Key) *datafile.UpdateRecord {
	callCtx, cancel := u.callContext(ctx)
	defer cancel()

	res := provider.Add(callCtx, u.APIs[entry.API], entry.Params, dnsapi.KeyData{
		Domain:   entry.Domain,
		KeyName:  entry.KeyName,
		Selector: key.Selector,
		Plain:    key.Plain,
		Chunked:  key.Chunked,
	})
	if !res.OK {
		return nil
	}
	return &datafile.UpdateRecord{Domain: res.Domain, Selector: res.Selector, CreatedAt: res.CreatedAt}
}

func (u *Updater) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.Timeout)
}
