package dnsapi

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/miekg/dns"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
)

const rfc2136DefaultTTL = 300

// RFC2136Provider publishes records with DNS dynamic updates
// (nsupdate-style), the native path for self-hosted BIND and friends.
//
// API registry parameters: [0] server address (host or host:port).
// Per-domain parameters: [0] zone, [1]+[2] optional TSIG key name and
// base64 secret, [3] optional TTL.
//
// Deletion removes the whole TXT RRset for the retired selector name.
type RFC2136Provider struct {
	Log   *logging.Logger
	debug bool
	now   func() time.Time
	// exchange is injectable for tests.
	exchange func(ctx context.Context, msg *dns.Msg, server string, tsigName, tsigSecret string, timeout time.Duration) (*dns.Msg, error)
	timeout  time.Duration
}

// NewRFC2136Provider creates the dynamic-update backend.
func NewRFC2136Provider(log *logging.Logger, opts Options) *RFC2136Provider {
	return &RFC2136Provider{
		Log:      log,
		debug:    opts.Debug,
		now:      time.Now,
		exchange: rfc2136Exchange,
		timeout:  opts.Timeout,
	}
}

func rfc2136Exchange(ctx context.Context, msg *dns.Msg, server string, tsigName, tsigSecret string, timeout time.Duration) (*dns.Msg, error) {
	client := &dns.Client{Net: "tcp", Timeout: timeout}
	if tsigName != "" {
		name := dns.Fqdn(tsigName)
		client.TsigSecret = map[string]string{name: tsigSecret}
		msg.SetTsig(name, dns.HmacSHA256, 300, time.Now().Unix())
	}
	reply, _, err := client.ExchangeContext(ctx, msg, server)
	return reply, err
}

func (p *RFC2136Provider) Name() string { return "rfc2136" }

type rfc2136Config struct {
	server     string
	zone       string
	tsigName   string
	tsigSecret string
	ttl        uint32
}

func (p *RFC2136Provider) parseParams(apiParams, domainParams []string, domain string) (rfc2136Config, bool) {
	var cfg rfc2136Config
	if len(apiParams) < 1 {
		p.Log.Error("DNS API rfc2136: server address not configured")
		return cfg, false
	}
	cfg.server = apiParams[0]
	if _, _, err := net.SplitHostPort(cfg.server); err != nil {
		cfg.server = net.JoinHostPort(cfg.server, "53")
	}
	if len(domainParams) < 1 {
		p.Log.Error("DNS API rfc2136: zone not configured for %s", domain)
		return cfg, false
	}
	cfg.zone = dns.Fqdn(domainParams[0])
	if len(domainParams) > 2 {
		cfg.tsigName = domainParams[1]
		cfg.tsigSecret = domainParams[2]
	}
	cfg.ttl = rfc2136DefaultTTL
	if len(domainParams) > 3 {
		if n, err := strconv.ParseUint(domainParams[3], 10, 32); err == nil && n > 0 {
			cfg.ttl = uint32(n)
		}
	}
	return cfg, true
}

// Add inserts the selector's TXT record into the zone.
func (p *RFC2136Provider) Add(ctx context.Context, apiParams, domainParams []string, key KeyData) AddResult {
	cfg, ok := p.parseParams(apiParams, domainParams, key.Domain)
	if !ok {
		return AddResult{}
	}

	if p.debug {
		p.Log.Debug("DNS API rfc2136: dry run, skipping publish of %s", key.RecordName())
		return AddResult{OK: true, Domain: key.Domain, Selector: key.Selector, CreatedAt: p.now().UTC()}
	}

	msg := new(dns.Msg)
	msg.SetUpdate(cfg.zone)
	msg.Insert([]dns.RR{&dns.TXT{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn(key.RecordName()),
			Rrtype: dns.TypeTXT,
			Class:  dns.ClassINET,
			Ttl:    cfg.ttl,
		},
		Txt: splitTXT(key.Plain),
	}})

	reply, err := p.exchange(ctx, msg, cfg.server, cfg.tsigName, cfg.tsigSecret, p.timeout)
	if err != nil {
		p.Log.Error("DNS API rfc2136: update for %s failed: %v", key.RecordName(), err)
		return AddResult{}
	}
	if reply.Rcode != dns.RcodeSuccess {
		p.Log.Error("DNS API rfc2136: update for %s refused: %s", key.RecordName(), dns.RcodeToString[reply.Rcode])
		return AddResult{}
	}

	return AddResult{OK: true, Domain: key.Domain, Selector: key.Selector, CreatedAt: p.now().UTC()}
}

// Delete removes the TXT RRset for the retired selector.
func (p *RFC2136Provider) Delete(ctx context.Context, apiParams, domainParams []string, rec datafile.UpdateRecord) DeleteOutcome {
	cfg, ok := p.parseParams(apiParams, domainParams, rec.Domain)
	if !ok {
		return DeleteFailed
	}

	name := dns.Fqdn(rec.Selector + "._domainkey." + rec.Domain)
	if p.debug {
		p.Log.Debug("DNS API rfc2136: dry run, retaining %s", name)
		return DeleteUnsupported
	}
	msg := new(dns.Msg)
	msg.SetUpdate(cfg.zone)
	msg.RemoveRRset([]dns.RR{&dns.TXT{
		Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeTXT, Class: dns.ClassINET},
	}})

	reply, err := p.exchange(ctx, msg, cfg.server, cfg.tsigName, cfg.tsigSecret, p.timeout)
	if err != nil {
		p.Log.Error("DNS API rfc2136: delete of %s failed: %v", name, err)
		return DeleteFailed
	}
	if reply.Rcode != dns.RcodeSuccess {
		p.Log.Error("DNS API rfc2136: delete of %s refused: %s", name, dns.RcodeToString[reply.Rcode])
		return DeleteFailed
	}
	return DeleteSucceeded
}

// splitTXT chops the plain record value into the 255-octet character
// strings a TXT record is made of.
func splitTXT(value string) []string {
	const max = 255
	if len(value) <= max {
		return []string{value}
	}
	var parts []string
	for len(value) > max {
		parts = append(parts, value[:max])
		value = value[max:]
	}
	if len(value) > 0 {
		parts = append(parts, value)
	}
	return parts
}
