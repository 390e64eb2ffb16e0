// client.go contains the fetching side of the scraper: building the urls of the three kinds of
// pages and turning responses into documents. It knows nothing about the markup.

package tapatalk

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"tapascrap/internal/components/assert"
	"tapascrap/internal/components/telemetry"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch = "client.fetch"
	report_client_init  = "client.init"
)

var tracer = otel.Tracer("tapascrap/scrapers/tapatalk")

// Fetcher retrieves forum pages, any error means the page should be treated as absent.
type Fetcher interface {
	Topic(ctx context.Context, id, start int64) (*goquery.Document, error)
	Forum(ctx context.Context, id, start int64) (*goquery.Document, error)
	Member(ctx context.Context, id int64) (*goquery.Document, error)
}

type ClientOptions struct {
	// BaseUrl is the root of the forum installation, ex. https://www.tapatalk.com/groups/metanetfr
	BaseUrl   string
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond throttles requests, 0 disables throttling.
	RequestsPerSecond float64
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	tel   telemetry.API
	pages metric.Int64Counter
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.BaseUrl)

	tel = telemetry.NewScopedAPI("tapatalk", tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	if opts.RequestsPerSecond > 0 {
		// burst of 1, requests are sequential anyway
		limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)

	pages, err := otel.Meter("tapascrap/scrapers/tapatalk").Int64Counter(
		"tapascrap.pages_fetched",
		metric.WithDescription("pages fetched and parsed successfully"),
	)
	if err != nil {
		tel.ReportWarning(report_client_init, fmt.Errorf("create counter: %w", err))
	}

	return &Client{
		BaseUrl: baseUrl,
		Http:    httpClient,
		tel:     tel,
		pages:   pages,
	}, nil
}

func TopicPath(id, start int64) string {
	query := url.Values{}
	query.Set("t", fmt.Sprint(id))
	query.Set("start", fmt.Sprint(start))
	return "/viewtopic.php?" + query.Encode()
}

func ForumPath(id, start int64) string {
	query := url.Values{}
	query.Set("f", fmt.Sprint(id))
	query.Set("start", fmt.Sprint(start))
	return "/viewforum.php?" + query.Encode()
}

func MemberPath(id int64) string {
	query := url.Values{}
	query.Set("mode", "viewprofile")
	query.Set("u", fmt.Sprint(id))
	return "/memberlist.php?" + query.Encode()
}

func (c *Client) fetch(ctx context.Context, kind, endpoint string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "client:"+kind)
	defer span.End()
	span.SetAttributes(attribute.String("url", endpoint))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrUnavailable, endpoint, err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
		c.tel.ReportDebug(report_client_fetch, endpoint, res.Status())
		return nil, fmt.Errorf("%w: fetch %s: %s", ErrUnavailable, endpoint, res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		c.tel.ReportWarning(report_client_fetch, fmt.Errorf("parse: %w", err), endpoint)
		return nil, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, endpoint, err)
	}

	if c.pages != nil {
		c.pages.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
	return doc, nil
}

func (c *Client) Topic(ctx context.Context, id, start int64) (*goquery.Document, error) {
	return c.fetch(ctx, "topic", TopicPath(id, start))
}

func (c *Client) Forum(ctx context.Context, id, start int64) (*goquery.Document, error) {
	return c.fetch(ctx, "forum", ForumPath(id, start))
}

func (c *Client) Member(ctx context.Context, id int64) (*goquery.Document, error) {
	return c.fetch(ctx, "member", MemberPath(id))
}
