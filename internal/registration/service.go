// Package registration serves the event registration forms: it merges the
// scraped page with the Forms API structure for display and turns collected
// answers into a submission on the remote form.
package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"eventreg-backend/internal/auth"
	"eventreg-backend/internal/components/assert"
	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/gforms/entries"
	"eventreg-backend/internal/gforms/payload"
	"eventreg-backend/internal/gforms/reconcile"
	"eventreg-backend/internal/gforms/scraper"
	"eventreg-backend/internal/gforms/structure"
	"eventreg-backend/internal/gforms/submit"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const (
	report_service_get_form   = "service.get-form"
	report_service_submit     = "service.submit"
	report_service_unresolved = "service.unresolved"
	report_service_cache_hit  = "service.cache-hit"
	report_service_refresh    = "service.refresh"
)

var tracer = otel.Tracer("eventreg.registration")

// PageScraper fetches and parses published form pages.
//
// note: fault injection point
type PageScraper interface {
	FetchPage(ctx context.Context, publishedID string) (scraper.Page, error)
	ParsePage(ctx context.Context, page scraper.Page) scraper.Result
	Scrape(ctx context.Context, publishedID string) (scraper.Result, scraper.Page)
}

// Submitter posts an encoded submission.
//
// note: fault injection point
type Submitter interface {
	Submit(ctx context.Context, publishedID string, body url.Values) (submit.Outcome, error)
}

type Service struct {
	cfg        Config
	scraper    PageScraper
	fetcher    structure.Fetcher
	submitter  Submitter
	reconciler *reconcile.Reconciler
	builder    payload.Builder
	cache      *expirable.LRU[string, FormView]
	tel        telemetry.API
}

func NewService(cfg Config, pages PageScraper, fetcher structure.Fetcher, submitter Submitter, tel telemetry.API) *Service {
	assert.NotNil(pages)
	assert.NotNil(fetcher)
	assert.NotNil(submitter)
	assert.NotNil(tel)

	size := cfg.CacheSize
	if size <= 0 {
		size = 16
	}

	return &Service{
		cfg:        cfg,
		scraper:    pages,
		fetcher:    fetcher,
		submitter:  submitter,
		reconciler: reconcile.New(tel),
		builder:    payload.NewBuilder(tel),
		cache:      expirable.NewLRU[string, FormView](size, nil, cfg.CacheTTL()),
		tel:        telemetry.NewScopedAPI("registration", tel),
	}
}

// Inspection is a single uncached display pass with everything that went
// into it.
type Inspection struct {
	Type      string
	Pair      FormPair
	Form      structure.Form
	Questions []reconcile.Question
	Report    reconcile.Report
	// Scraped is the entry map as it was before reconciliation.
	Scraped []entries.TitleQueue
	// Leftover is what reconciliation did not consume.
	Leftover []entries.TitleQueue
	Page     scraper.Page
}

// Inspect scrapes the page and fetches the structure concurrently, then
// reconciles them. The entry map is local to this call.
func (s *Service) Inspect(ctx context.Context, formType string) (Inspection, error) {
	ctx, span := tracer.Start(ctx, "Inspect")
	defer span.End()

	formType, pair, err := s.cfg.pair(formType)
	if err != nil {
		return Inspection{}, err
	}
	span.SetAttributes(attribute.String("type", formType))

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout())
	defer cancel()

	var (
		result scraper.Result
		page   scraper.Page
		form   structure.Form
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		result, page = s.scraper.Scrape(groupCtx, pair.PublishedID)
		return nil
	})
	group.Go(func() error {
		var err error
		form, err = s.fetcher.FetchForm(groupCtx, pair.FormID)
		return err
	})
	err = group.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch form structure")
		s.tel.ReportBroken(report_service_get_form, err, formType)
		return Inspection{}, newError(ErrUpstream, "fetch form structure", err)
	}

	scraped := result.Entries.Snapshot()
	questions, report := s.reconciler.Reconcile(ctx, form.Questions, result.Entries)

	return Inspection{
		Type:      formType,
		Pair:      pair,
		Form:      form,
		Questions: questions,
		Report:    report,
		Scraped:   scraped,
		Leftover:  result.Entries.Snapshot(),
		Page:      page,
	}, nil
}

// GetForm returns the display view of a form. Views are cached per type,
// scraped entries and tokens never are.
func (s *Service) GetForm(ctx context.Context, formType string) (FormView, error) {
	key := normalizeType(formType)
	if view, ok := s.cache.Get(key); ok {
		s.tel.ReportDebug(report_service_cache_hit, key)
		return view, nil
	}

	inspection, err := s.Inspect(ctx, formType)
	if err != nil {
		return FormView{}, err
	}
	view := buildView(inspection.Form, inspection.Questions)
	s.cache.Add(key, view)
	return view, nil
}

// Refresh rebuilds the cached view of every configured form so readers keep
// getting a warm cache. A form that fails keeps its previous view until it
// expires.
func (s *Service) Refresh(ctx context.Context) error {
	types := make([]string, 0, len(s.cfg.Forms))
	for formType := range s.cfg.Forms {
		types = append(types, formType)
	}
	sort.Strings(types)

	var errs []error
	for _, formType := range types {
		inspection, err := s.Inspect(ctx, formType)
		if err != nil {
			s.tel.ReportWarning(report_service_refresh, formType, err)
			errs = append(errs, fmt.Errorf("refresh %s: %w", formType, err))
			continue
		}
		s.cache.Add(inspection.Type, buildView(inspection.Form, inspection.Questions))
	}
	return errors.Join(errs...)
}

type SubmitRequest struct {
	Type      string                    `json:"type"`
	Responses map[string]payload.Answer `json:"responses"`
}

// unresolvedKeys returns the answer keys the page index does not know, grid
// answers are checked by their row keys.
func unresolvedKeys(index entries.Index, answers map[string]payload.Answer) []string {
	var out []string
	for key, answer := range answers {
		switch answer.Kind {
		case payload.AnswerNone:
			continue
		case payload.AnswerGrid:
			for _, cell := range answer.Grid {
				field, ok := index.Lookup(cell.RowID)
				if !ok || field.Row == "" {
					out = append(out, key+"."+cell.RowID)
				}
			}
		default:
			if _, ok := index.Lookup(key); !ok {
				out = append(out, key)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Prepared is an encoded submission bound to the page it was scraped from.
type Prepared struct {
	Type        string
	PublishedID string
	Body        url.Values
}

// Prepare scrapes a fresh token and identifier index and encodes the answers
// against it. identity is nil when auth is disabled.
func (s *Service) Prepare(ctx context.Context, req SubmitRequest, identity *auth.Identity) (Prepared, error) {
	ctx, span := tracer.Start(ctx, "Prepare")
	defer span.End()

	formType, pair, err := s.cfg.pair(req.Type)
	if err != nil {
		return Prepared{}, err
	}
	span.SetAttributes(attribute.String("type", formType))

	page, err := s.scraper.FetchPage(ctx, pair.PublishedID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch view page")
		return Prepared{}, newError(ErrUpstream, "fetch view page", err)
	}
	result := s.scraper.ParsePage(ctx, page)

	unresolved := unresolvedKeys(result.Index, req.Responses)
	if len(unresolved) > 0 {
		s.tel.ReportWarning(report_service_unresolved, formType, unresolved)
		if !s.cfg.AllowUnresolved {
			return Prepared{}, &UnresolvedKeysError{Keys: unresolved}
		}
	}

	var email string
	if pair.CollectEmail && identity != nil {
		email = identity.Email
	}
	body, err := s.builder.Build(payload.Request{
		Answers:   req.Responses,
		Index:     result.Index,
		Token:     page.Token,
		Email:     email,
		Durations: s.durationIDs(formType),
	})
	if err != nil {
		return Prepared{}, err
	}

	return Prepared{
		Type:        formType,
		PublishedID: pair.PublishedID,
		Body:        body,
	}, nil
}

// durationIDs reads duration questions from the cached view, the page
// alone cannot tell them apart from times. A cold cache yields none.
func (s *Service) durationIDs(formType string) map[string]bool {
	view, ok := s.cache.Peek(formType)
	if !ok {
		return nil
	}
	out := map[string]bool{}
	for _, q := range view.Questions {
		if q.Type == string(structure.TypeDuration) && q.EntryID != "" {
			out[q.EntryID] = true
		}
	}
	return out
}

// Submit prepares the submission and posts it once, it is never retried.
func (s *Service) Submit(ctx context.Context, req SubmitRequest, identity *auth.Identity) (submit.Outcome, error) {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout())
	defer cancel()

	prepared, err := s.Prepare(ctx, req, identity)
	if err != nil {
		return submit.Outcome{}, err
	}

	outcome, err := s.submitter.Submit(ctx, prepared.PublishedID, prepared.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit")
		s.tel.ReportBroken(report_service_submit, err, prepared.Type)
		return submit.Outcome{}, err
	}
	s.tel.ReportDebug(report_service_submit, prepared.Type, outcome.Status)
	return outcome, nil
}

// DebugItem returns the raw embedded data of the item titled title, nil
// when the page has no such item.
func (s *Service) DebugItem(ctx context.Context, formType, title string) (json.RawMessage, error) {
	_, pair, err := s.cfg.pair(formType)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout())
	defer cancel()

	page, err := s.scraper.FetchPage(ctx, pair.PublishedID)
	if err != nil {
		return nil, newError(ErrUpstream, "fetch view page", err)
	}
	if page.Payload == "" {
		return nil, newError(ErrUpstream, "", scraper.ErrPayloadNotFound)
	}
	item, err := scraper.RawItem(page.Payload, title)
	if err != nil {
		return nil, newError(ErrUpstream, "decode payload", err)
	}
	return item, nil
}

// ClearCache drops every cached view.
func (s *Service) ClearCache() {
	s.cache.Purge()
}
