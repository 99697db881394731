package registration

import (
	"context"
	"net/http"

	"eventreg-backend/internal/auth"
	"eventreg-backend/internal/components/restyutil"
	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/gforms/scraper"
	"eventreg-backend/internal/gforms/structure"
	"eventreg-backend/internal/gforms/submit"
)

// New creates a Service talking to the real Google endpoints.
func New(ctx context.Context, cfg Config, tel telemetry.API) (*Service, error) {
	formsService, err := structure.NewService(ctx, cfg.Google)
	if err != nil {
		return nil, err
	}

	var dump restyutil.Output
	if cfg.DumpHttpDir != "" {
		dump, err = restyutil.NewDirectoryOutput(cfg.DumpHttpDir)
		if err != nil {
			return nil, err
		}
	}

	pages := scraper.NewClient(scraper.Options{
		Timeout:           cfg.Timeout(),
		Retries:           cfg.Scraper.Retries,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		Dump:              dump,
	}, tel)
	fetcher := structure.NewAPIFetcher(formsService, cfg.Timeout(), tel)
	submitter := submit.NewClient(submit.Options{
		Timeout: cfg.Timeout(),
		Dump:    dump,
	}, tel)

	return NewService(cfg, pages, fetcher, submitter, tel), nil
}

// Gate returns the auth middleware for the submission route, nil when auth
// is disabled.
func Gate(cfg Config, tel telemetry.API) func(http.Handler) http.Handler {
	if !cfg.Auth.Enabled {
		return nil
	}
	verifier := auth.NewGoogleVerifier(cfg.Auth.UserInfoUrl, cfg.Timeout(), tel)
	return auth.NewMiddleware(verifier, cfg.Auth.AllowedDomains, tel).Wrap
}
