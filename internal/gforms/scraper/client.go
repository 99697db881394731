// client.go fetches published form pages, it does not know anything about
// how the page is reconciled with the form structure.

package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"eventreg-backend/internal/components/assert"
	"eventreg-backend/internal/components/restyutil"
	"eventreg-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch_page = "client.fetch-page"
	report_client_parse_page = "client.parse-page"
	report_client_entries    = "client.entries"
)

var tracer = otel.Tracer("eventreg.gforms.scraper")

const DefaultBaseUrl = "https://docs.google.com"

type Options struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Timeout bounds a single page fetch, including retries.
	Timeout time.Duration
	// RequestsPerSecond limits outbound fetches, 0 means 2 per second.
	RequestsPerSecond float64
	Retries           int
	// Dump receives every fetched page when set.
	Dump restyutil.Output
}

// Page is a published form page as it was served at fetch time. Token is
// short-lived, a Page must not outlive the request that fetched it.
type Page struct {
	PublishedID string
	Html        string
	Payload     string
	Token       string
}

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(opts Options, tel telemetry.API) *Client {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("gforms_scraper", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetTimeout(opts.Timeout)
	// fetching the view page is idempotent, unlike submitting
	httpClient.SetRetryCount(opts.Retries)
	httpClient.SetRetryWaitTime(250 * time.Millisecond)

	// max burst >= requests per second just means that no requests will be dropped
	burst := int(opts.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.Dump(httpClient, "viewform", opts.Dump)

	return &Client{
		http: httpClient,
		tel:  tel,
	}
}

// FetchPage downloads the published view page and pulls the embedded
// payload and anti-forgery token out of it.
func (c *Client) FetchPage(ctx context.Context, publishedID string) (Page, error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	defer span.End()
	span.SetAttributes(attribute.String("published_id", publishedID))

	assert.NotEmptyStr(publishedID)

	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("publishedID", publishedID).
		Get("/forms/d/e/{publishedID}/viewform")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch view page")
		c.tel.ReportBroken(report_client_fetch_page, fmt.Errorf("fetch: %w", err), publishedID)
		return Page{}, fmt.Errorf("fetch view page: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("fetch view page: unexpected status %s", res.Status())
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_fetch_page, err, publishedID)
		return Page{}, err
	}

	page := Page{
		PublishedID: publishedID,
		Html:        res.String(),
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		// the regex fallbacks below still work on the raw html
		c.tel.ReportWarning(report_client_fetch_page, fmt.Errorf("parse html: %w", err), publishedID)
		doc = nil
	}
	page.Payload = extractPayload(doc, page.Html)
	page.Token = extractToken(doc, page.Html)
	if page.Token == "" {
		c.tel.ReportWarning(report_client_fetch_page, "fbzx token not found", publishedID)
	}
	span.SetAttributes(
		attribute.Bool("payload_found", page.Payload != ""),
		attribute.Bool("token_found", page.Token != ""),
	)

	return page, nil
}

// ParsePage never fails, a page without a usable payload produces an empty
// result and a report.
func (c *Client) ParsePage(ctx context.Context, page Page) Result {
	_, span := tracer.Start(ctx, "ParsePage")
	defer span.End()

	if page.Payload == "" {
		span.SetStatus(codes.Error, ErrPayloadNotFound.Error())
		c.tel.ReportBroken(report_client_parse_page, ErrPayloadNotFound, page.PublishedID)
		return emptyResult()
	}
	result, err := Parse(page.Payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse payload")
		c.tel.ReportBroken(report_client_parse_page, err, page.PublishedID)
		return emptyResult()
	}

	c.tel.ReportCount(report_client_entries, int64(result.Entries.Len()))
	span.SetAttributes(
		attribute.Int("items", result.Items),
		attribute.Int("entries", result.Entries.Len()),
	)
	return result
}

// Scrape is FetchPage followed by ParsePage where fetch failures also
// degrade to an empty result. The returned Page is zero on fetch failure.
func (c *Client) Scrape(ctx context.Context, publishedID string) (Result, Page) {
	page, err := c.FetchPage(ctx, publishedID)
	if err != nil {
		return emptyResult(), Page{PublishedID: publishedID}
	}
	return c.ParsePage(ctx, page), page
}
