package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventreg-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, body string, status int) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/d/e/PUB/viewform" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(baseUrl string, tel telemetry.API) *Client {
	return NewClient(Options{
		BaseUrl:           baseUrl,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 100,
	}, tel)
}

func TestScrape(t *testing.T) {
	server := newTestServer(t, fixtureHtml(fixturePayload, "tok-1"), http.StatusOK)
	rec := telemetry.NewRecorder()
	client := newTestClient(server.URL, rec)

	result, page := client.Scrape(context.Background(), "PUB")
	require.Equal(t, "tok-1", page.Token)
	require.Equal(t, "PUB", page.PublishedID)
	require.Equal(t, 2, len(result.Entries.Queue("Name")))
	require.Empty(t, rec.Find(telemetry.ReportKindBroken, report_client_parse_page))
}

func TestScrapeDegradesToEmpty(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		report string
	}{
		{
			name:   "payload absent",
			body:   "<html><body>no data</body></html>",
			status: http.StatusOK,
			report: report_client_parse_page,
		},
		{
			name:   "payload malformed",
			body:   fixtureHtml(`[null, {"broken"`, "tok"),
			status: http.StatusOK,
			report: report_client_parse_page,
		},
		{
			name:   "not found",
			body:   "gone",
			status: http.StatusNotFound,
			report: report_client_fetch_page,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			server := newTestServer(t, test.body, test.status)
			rec := telemetry.NewRecorder()
			client := newTestClient(server.URL, rec)

			result, _ := client.Scrape(context.Background(), "PUB")
			require.NotNil(t, result.Entries)
			require.True(t, result.Entries.Empty())
			require.NotEmpty(t, rec.Find(telemetry.ReportKindBroken, test.report))
		})
	}
}

func TestFetchPageError(t *testing.T) {
	server := newTestServer(t, "unavailable", http.StatusServiceUnavailable)
	client := newTestClient(server.URL, telemetry.NewRecorder())

	_, err := client.FetchPage(context.Background(), "PUB")
	require.Error(t, err)
}
