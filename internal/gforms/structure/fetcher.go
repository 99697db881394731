package structure

import (
	"context"
	"os"
	"strings"
	"time"

	"eventreg-backend/internal/components/assert"
	"eventreg-backend/internal/components/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/forms/v1"
	"google.golang.org/api/option"
)

const report_fetcher_fetch_form = "fetcher.fetch-form"

var tracer = otel.Tracer("eventreg.gforms.structure")

// Fetcher returns the canonical structure of a form.
//
// note: fault injection point
type Fetcher interface {
	FetchForm(ctx context.Context, formID string) (Form, error)
}

// Credentials selects how the Forms API is authenticated, the first
// non-empty option wins: CredentialsFile, then ClientEmail + PrivateKey,
// then application default credentials.
type Credentials struct {
	CredentialsFile string `json:"credentials_file"`
	ClientEmail     string `json:"client_email"`
	// PrivateKey may contain literal `\n` escapes as environment variables
	// usually do.
	PrivateKey string `json:"private_key"`

	// Endpoint overrides the api endpoint and disables authentication, it
	// exists for tests.
	Endpoint string `json:"endpoint"`
}

// NewService creates a read-only Forms API service from creds.
func NewService(ctx context.Context, creds Credentials) (*forms.Service, error) {
	if creds.Endpoint != "" {
		return forms.NewService(
			ctx,
			option.WithEndpoint(creds.Endpoint),
			option.WithoutAuthentication(),
		)
	}

	if creds.CredentialsFile != "" {
		data, err := os.ReadFile(creds.CredentialsFile)
		if err != nil {
			return nil, newCredentialsError("read credentials file", err)
		}
		googleCreds, err := google.CredentialsFromJSON(ctx, data, forms.FormsBodyReadonlyScope)
		if err != nil {
			return nil, newCredentialsError("parse credentials file", err)
		}
		return forms.NewService(ctx, option.WithCredentials(googleCreds))
	}

	if creds.ClientEmail != "" && creds.PrivateKey != "" {
		cfg := &jwt.Config{
			Email:      creds.ClientEmail,
			PrivateKey: []byte(strings.ReplaceAll(creds.PrivateKey, `\n`, "\n")),
			Scopes:     []string{forms.FormsBodyReadonlyScope},
			TokenURL:   google.JWTTokenURL,
		}
		return forms.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	}

	client, err := google.DefaultClient(ctx, forms.FormsBodyReadonlyScope)
	if err != nil {
		return nil, newCredentialsError("application default credentials", err)
	}
	return forms.NewService(ctx, option.WithHTTPClient(client))
}

type APIFetcher struct {
	service *forms.Service
	timeout time.Duration
	tel     telemetry.API
}

func NewAPIFetcher(service *forms.Service, timeout time.Duration, tel telemetry.API) *APIFetcher {
	assert.NotNil(service)
	assert.NotNil(tel)
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &APIFetcher{
		service: service,
		timeout: timeout,
		tel:     telemetry.NewScopedAPI("gforms_structure", tel),
	}
}

func (f *APIFetcher) FetchForm(ctx context.Context, formID string) (Form, error) {
	ctx, span := tracer.Start(ctx, "FetchForm")
	defer span.End()
	span.SetAttributes(attribute.String("form_id", formID))

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	res, err := f.service.Forms.Get(formID).Context(ctx).Do()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "forms.get")
		f.tel.ReportBroken(report_fetcher_fetch_form, err, formID)
		return Form{}, newAPIError("failed to get form", err)
	}

	form := Convert(res, f.tel)
	span.SetAttributes(attribute.Int("questions", len(form.Questions)))
	return form, nil
}
