package dnsapi

import (
	"fmt"
	"sort"
	"time"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
)

// Options configures backend construction for a run.
type Options struct {
	// Timeout bounds every Add and Delete call.
	Timeout time.Duration
	// Debug makes network-backed APIs short-circuit success before any
	// network call, so a dry run exercises the whole pipeline without
	// touching real DNS.
	Debug bool
}

// Registry maps API names to their backends. All backends are registered
// at startup; resolving an unknown name is an explicit error rather than
// a silent omission.
type Registry struct {
	providers map[string]Provider
	log       *logging.Logger
}

// NewRegistry creates a registry with all built-in backends.
func NewRegistry(log *logging.Logger, opts Options) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		log:       log,
	}
	r.Register(NewNullProvider(log))
	r.Register(NewFailProvider(log))
	r.Register(NewFroxlorProvider(log, opts))
	r.Register(NewRoute53Provider(log, opts))
	r.Register(NewRFC2136Provider(log, opts))
	return r
}

// Register adds a backend under its own name.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Resolve returns the backend for name.
func (r *Registry) Resolve(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("no DNS API %q registered", name)
	}
	return p, nil
}

// Null returns the reserved null backend.
func (r *Registry) Null() Provider {
	return r.providers[datafile.NullAPI]
}

// Names lists the registered backend names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
