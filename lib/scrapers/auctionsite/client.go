package auctionsite

import (
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"payform-backend/internal/components/assert"
	"payform-backend/internal/components/telemetry"
	"payform-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

const (
	defaultTimeout = 30 * time.Second
	defaultBurst   = 2
)

// ClientOptions configures the http client used to talk to the auction site.
type ClientOptions struct {
	// BaseUrl is the root of the auction site (ex. https://bid.example-auctions.com).
	BaseUrl string
	// Timeout bounds every individual request, it defaults to 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond rate limits the client, zero disables the limiter.
	RequestsPerSecond float64
	// CloudflareBypass wraps the transport with a browser-like tls fingerprint.
	CloudflareBypass bool
	// StatementPaths are the candidate url templates tried in order by
	// FetchStatement, DefaultStatementPaths is used when empty.
	StatementPaths []string
	// Output receives a dump of every http exchange when not nil.
	Output restyutil.InstrumentOutput

	Tel telemetry.API
}

// Client is a session with the auction site, once Login or Restore succeeds
// it carries the authenticated cookies and can fetch seller statements.
//
// A Client is safe to use from multiple goroutines.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	jar            *cookiejar.Jar
	statementPaths []string
	tel            telemetry.API
}

func NewClient(opts ClientOptions) (*Client, error) {
	assert.NotNil(opts.Tel, "tel")

	baseUrl, err := url.Parse(strings.TrimSuffix(opts.BaseUrl, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", opts.BaseUrl)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(baseUrl.String())
	client.SetCookieJar(jar)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client.SetTimeout(timeout)

	if opts.RequestsPerSecond > 0 {
		limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), defaultBurst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, opts.Tel)
	restyutil.InstrumentClient(client, "payform.scrapers.auctionsite", opts.Output)

	paths := opts.StatementPaths
	if len(paths) == 0 {
		paths = DefaultStatementPaths
	}

	return &Client{
		BaseUrl:        baseUrl,
		Http:           client,
		jar:            jar,
		statementPaths: paths,
		tel:            opts.Tel,
	}, nil
}
