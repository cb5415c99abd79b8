package dnsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
)

// Froxlor TTL handling: records default to 18000 seconds and the panel
// rejects anything below 300.
const (
	froxlorDefaultTTL = 18000
	froxlorMinTTL     = 300
)

// FroxlorProvider publishes records through the Froxlor panel's JSON API.
//
// API registry parameters: [0] API endpoint URL.
// Per-domain parameters: [0] API key, [1] API secret, [2] optional TTL.
//
// The panel has no usable record-deletion call, so Delete reports
// unsupported and old records are retired manually.
type FroxlorProvider struct {
	Log    *logging.Logger
	Client *http.Client
	debug  bool
	now    func() time.Time
}

// NewFroxlorProvider creates the Froxlor backend.
func NewFroxlorProvider(log *logging.Logger, opts Options) *FroxlorProvider {
	return &FroxlorProvider{
		Log:    log,
		Client: &http.Client{Timeout: opts.Timeout},
		debug:  opts.Debug,
		now:    time.Now,
	}
}

func (p *FroxlorProvider) Name() string { return "froxlor" }

type froxlorRequest struct {
	Header froxlorHeader `json:"header"`
	Body   froxlorBody   `json:"body"`
}

type froxlorHeader struct {
	APIKey string `json:"apikey"`
	Secret string `json:"secret"`
}

type froxlorBody struct {
	Command string        `json:"command"`
	Params  froxlorParams `json:"params"`
}

type froxlorParams struct {
	DomainName string `json:"domainname"`
	Record     string `json:"record"`
	Type       string `json:"type"`
	Content    string `json:"content"`
	TTL        int    `json:"ttl"`
}

type froxlorResponse struct {
	Status int `json:"status"`
}

// Add publishes the selector's TXT record via DomainZones.add.
func (p *FroxlorProvider) Add(ctx context.Context, apiParams, domainParams []string, key KeyData) AddResult {
	if len(apiParams) < 1 {
		p.Log.Error("DNS API froxlor: API endpoint not configured")
		return AddResult{}
	}
	endpoint := apiParams[0]
	if len(domainParams) < 2 {
		p.Log.Error("DNS API froxlor: domain entry missing API key and secret")
		return AddResult{}
	}

	ttl := froxlorDefaultTTL
	if len(domainParams) > 2 {
		if n, err := strconv.Atoi(domainParams[2]); err == nil {
			ttl = n
			if ttl < froxlorMinTTL {
				ttl = froxlorMinTTL
			}
		}
	}

	if p.debug {
		p.Log.Debug("DNS API froxlor: dry run, skipping publish of %s", key.RecordName())
		return AddResult{OK: true, Domain: key.Domain, Selector: key.Selector, CreatedAt: p.now().UTC()}
	}

	reqBody := froxlorRequest{
		Header: froxlorHeader{APIKey: domainParams[0], Secret: domainParams[1]},
		Body: froxlorBody{
			Command: "DomainZones.add",
			Params: froxlorParams{
				DomainName: key.Domain,
				Record:     key.Selector + "._domainkey",
				Type:       "TXT",
				Content:    key.Chunked,
				TTL:        ttl,
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		p.Log.Error("DNS API froxlor: encoding request: %v", err)
		return AddResult{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		p.Log.Error("DNS API froxlor: building request: %v", err)
		return AddResult{}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		p.Log.Error("DNS API froxlor: request failed: %v", err)
		return AddResult{}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	p.Log.Debug("DNS API froxlor: HTTP status %d", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		p.Log.Error("DNS API froxlor: HTTP error %d: %s", resp.StatusCode, body)
		return AddResult{}
	}

	var parsed froxlorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		p.Log.Error("DNS API froxlor: decoding response: %v", err)
		return AddResult{}
	}
	if parsed.Status != http.StatusOK {
		p.Log.Error("DNS API froxlor: API failure: %s", body)
		return AddResult{}
	}

	return AddResult{OK: true, Domain: key.Domain, Selector: key.Selector, CreatedAt: p.now().UTC()}
}

// Delete is not supported by the Froxlor API.
func (p *FroxlorProvider) Delete(ctx context.Context, apiParams, domainParams []string, rec datafile.UpdateRecord) DeleteOutcome {
	return DeleteUnsupported
}
