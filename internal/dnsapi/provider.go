// Package dnsapi defines the capability interface for DNS API backends
// and the built-in implementations. A backend publishes one TXT record
// per selector and, when the API supports it, deletes retired records.
package dnsapi

import (
	"context"
	"time"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
)

// KeyData is the record a backend publishes: the generated key for one
// domain, together with the domain it is being published for.
type KeyData struct {
	Domain   string
	KeyName  string
	Selector string
	// Plain is the unquoted TXT payload, for JSON-style APIs.
	Plain string
	// Chunked is the quoted zone-file form, for APIs that paste into
	// zone data directly.
	Chunked string
}

// RecordName returns the DNS name the TXT record is published under.
func (k KeyData) RecordName() string {
	return k.Selector + "._domainkey." + k.Domain
}

// AddResult is the outcome of publishing a record. Ordinary HTTP or
// application failures are reported with OK set to false, never as a
// panic or error escalation; the orchestrator isolates the failure to the
// one domain.
type AddResult struct {
	OK        bool
	Domain    string
	Selector  string
	CreatedAt time.Time
}

// DeleteOutcome is the tri-state result of a record deletion.
type DeleteOutcome int

const (
	// DeleteUnsupported means the backend cannot delete records. The
	// caller must conservatively retain the history record, since the
	// remote record may still exist.
	DeleteUnsupported DeleteOutcome = iota
	// DeleteSucceeded means the record is gone and its history entry
	// can be pruned.
	DeleteSucceeded
	// DeleteFailed means deletion was attempted and did not succeed;
	// the history record is retained.
	DeleteFailed
)

func (o DeleteOutcome) String() string {
	switch o {
	case DeleteSucceeded:
		return "succeeded"
	case DeleteFailed:
		return "failed"
	default:
		return "unsupported"
	}
}

// Provider is a DNS API backend. apiParams come from the API registry
// row for the backend; domainParams are the per-domain extra fields from
// the domain registry.
type Provider interface {
	Name() string

	// Add publishes the TXT record for key. Only configuration errors
	// (missing required parameters) may short-circuit; transport and
	// application failures resolve to a failed AddResult with a logged
	// diagnostic.
	Add(ctx context.Context, apiParams, domainParams []string, key KeyData) AddResult

	// Delete removes the record described by rec, if the backend
	// supports deletion.
	Delete(ctx context.Context, apiParams, domainParams []string, rec datafile.UpdateRecord) DeleteOutcome
}
