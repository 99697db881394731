// Package submit posts encoded answers to the formResponse endpoint.
package submit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eventreg-backend/internal/components/assert"
	"eventreg-backend/internal/components/restyutil"
	"eventreg-backend/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_client_submit = "client.submit"
)

var (
	tracer = otel.Tracer("eventreg.gforms.submit")
	meter  = otel.Meter("eventreg.gforms.submit")
)

var (
	ErrRejected  = errors.New("submission rejected")
	ErrTransport = errors.New("submission transport failed")
)

// maxErrorBody is how much of a rejected response body is kept.
const maxErrorBody = 500

type RejectedError struct {
	Status int
	Body   string
}

func (err *RejectedError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrRejected.Error(), err.Status)
}

func (err *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

func truncate(body string) string {
	if len(body) <= maxErrorBody {
		return body
	}
	return strings.ToValidUTF8(body[:maxErrorBody], "")
}

type Outcome struct {
	Status int
	// Location is where the endpoint redirected to, usually the
	// confirmation page.
	Location string
}

type Options struct {
	BaseUrl string
	Timeout time.Duration
	// Dump receives every exchange with the endpoint when set.
	Dump restyutil.Output
}

type Client struct {
	http     *resty.Client
	tel      telemetry.API
	attempts metric.Int64Counter
}

func NewClient(opts Options, tel telemetry.API) *Client {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("gforms_submit", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://docs.google.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetTimeout(opts.Timeout)
	// the redirect is the confirmation page, following it is not needed to
	// know the response was recorded
	httpClient.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	// a retried POST can record the same response twice
	httpClient.SetRetryCount(0)

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.Dump(httpClient, "formresponse", opts.Dump)

	attempts, err := meter.Int64Counter(
		"gforms.submissions",
		metric.WithDescription("formResponse posts by outcome"),
	)
	if err != nil {
		tel.ReportBroken(report_client_submit, fmt.Errorf("create counter: %w", err))
	}

	return &Client{
		http:     httpClient,
		tel:      tel,
		attempts: attempts,
	}
}

func (c *Client) count(ctx context.Context, outcome string) {
	if c.attempts == nil {
		return
	}
	c.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Submit posts body exactly once. Any 2xx or 3xx status is a recorded
// response, anything else is a *RejectedError.
func (c *Client) Submit(ctx context.Context, publishedID string, body url.Values) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()
	span.SetAttributes(attribute.String("published_id", publishedID))

	assert.NotEmptyStr(publishedID)

	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("publishedID", publishedID).
		SetFormDataFromValues(body).
		Post("/forms/d/e/{publishedID}/formResponse")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "post formResponse")
		c.tel.ReportBroken(report_client_submit, err, publishedID)
		c.count(ctx, "transport_error")
		return Outcome{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	status := res.StatusCode()
	span.SetAttributes(attribute.Int("status", status))
	if status < 200 || status >= 400 {
		rejected := &RejectedError{Status: status, Body: truncate(res.String())}
		span.SetStatus(codes.Error, rejected.Error())
		c.tel.ReportWarning(report_client_submit, rejected, publishedID)
		c.count(ctx, "rejected")
		return Outcome{}, rejected
	}

	c.count(ctx, "accepted")
	return Outcome{
		Status:   status,
		Location: res.Header().Get("Location"),
	}, nil
}
