package dnsapi

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
)

const route53DefaultTTL = 300

// route53API is the subset of the Route 53 client the backend uses,
// extracted so tests can fake the service.
type route53API interface {
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
	ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
}

// Route53Provider publishes records through AWS Route 53.
//
// API registry parameters: [0] optional region, [1]+[2] optional static
// access key and secret (default credential chain otherwise).
// Per-domain parameters: [0] hosted zone ID, [1] optional TTL.
//
// Deletion is supported: the record set is looked up by name and removed.
type Route53Provider struct {
	Log   *logging.Logger
	debug bool
	now   func() time.Time
	// newClient is injectable for tests.
	newClient func(ctx context.Context, apiParams []string) (route53API, error)
}

// NewRoute53Provider creates the Route 53 backend.
func NewRoute53Provider(log *logging.Logger, opts Options) *Route53Provider {
	return &Route53Provider{
		Log:       log,
		debug:     opts.Debug,
		now:       time.Now,
		newClient: newRoute53Client,
	}
}

func newRoute53Client(ctx context.Context, apiParams []string) (route53API, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if len(apiParams) > 0 && apiParams[0] != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(apiParams[0]))
	}
	if len(apiParams) > 2 {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(apiParams[1], apiParams[2], "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	return route53.NewFromConfig(cfg), nil
}

func (p *Route53Provider) Name() string { return "route53" }

// Add upserts the selector's TXT record in the domain's hosted zone.
func (p *Route53Provider) Add(ctx context.Context, apiParams, domainParams []string, key KeyData) AddResult {
	if len(domainParams) < 1 {
		p.Log.Error("DNS API route53: hosted zone ID not configured for %s", key.Domain)
		return AddResult{}
	}
	zoneID := domainParams[0]

	ttl := int64(route53DefaultTTL)
	if len(domainParams) > 1 {
		if n, err := strconv.ParseInt(domainParams[1], 10, 64); err == nil && n > 0 {
			ttl = n
		}
	}

	if p.debug {
		p.Log.Debug("DNS API route53: dry run, skipping publish of %s", key.RecordName())
		return AddResult{OK: true, Domain: key.Domain, Selector: key.Selector, CreatedAt: p.now().UTC()}
	}

	client, err := p.newClient(ctx, apiParams)
	if err != nil {
		p.Log.Error("DNS API route53: loading AWS configuration: %v", err)
		return AddResult{}
	}

	_, err = client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Changes: []r53types.Change{{
				Action: r53types.ChangeActionUpsert,
				ResourceRecordSet: &r53types.ResourceRecordSet{
					Name: aws.String(key.RecordName() + "."),
					Type: r53types.RRTypeTxt,
					TTL:  aws.Int64(ttl),
					ResourceRecords: []r53types.ResourceRecord{
						{Value: aws.String(key.Chunked)},
					},
				},
			}},
		},
	})
	if err != nil {
		p.Log.Error("DNS API route53: publishing %s: %v", key.RecordName(), err)
		return AddResult{}
	}

	return AddResult{OK: true, Domain: key.Domain, Selector: key.Selector, CreatedAt: p.now().UTC()}
}

// Delete removes the record set for rec from the hosted zone. A record
// that is already gone counts as a successful delete.
func (p *Route53Provider) Delete(ctx context.Context, apiParams, domainParams []string, rec datafile.UpdateRecord) DeleteOutcome {
	if len(domainParams) < 1 {
		p.Log.Error("DNS API route53: hosted zone ID not configured for %s", rec.Domain)
		return DeleteFailed
	}
	zoneID := domainParams[0]
	name := rec.Selector + "._domainkey." + rec.Domain + "."
	if p.debug {
		p.Log.Debug("DNS API route53: dry run, retaining %s", name)
		return DeleteUnsupported
	}

	client, err := p.newClient(ctx, apiParams)
	if err != nil {
		p.Log.Error("DNS API route53: loading AWS configuration: %v", err)
		return DeleteFailed
	}

	// The DELETE change requires the record's current contents, so look
	// the record set up by name first.
	list, err := client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(zoneID),
		StartRecordName: aws.String(name),
		StartRecordType: r53types.RRTypeTxt,
		MaxItems:        aws.Int32(1),
	})
	if err != nil {
		p.Log.Error("DNS API route53: listing record sets for %s: %v", name, err)
		return DeleteFailed
	}
	if len(list.ResourceRecordSets) == 0 || aws.ToString(list.ResourceRecordSets[0].Name) != name {
		p.Log.Debug("DNS API route53: record %s already gone", name)
		return DeleteSucceeded
	}
	recordSet := list.ResourceRecordSets[0]

	_, err = client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Changes: []r53types.Change{{
				Action:            r53types.ChangeActionDelete,
				ResourceRecordSet: &recordSet,
			}},
		},
	})
	if err != nil {
		p.Log.Error("DNS API route53: deleting %s: %v", name, err)
		return DeleteFailed
	}
	return DeleteSucceeded
}
