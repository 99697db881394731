package submit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"eventreg-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

type recorded struct {
	calls atomic.Int32
	form  url.Values
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *recorded) {
	rec := &recorded{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/confirmation" {
			t.Error("redirect was followed")
			return
		}
		if r.Method != http.MethodPost || r.URL.Path != "/forms/d/e/PUB/formResponse" {
			http.NotFound(w, r)
			return
		}
		rec.calls.Add(1)
		_ = r.ParseForm()
		rec.form = r.PostForm
		if status >= 300 && status < 400 {
			w.Header().Set("Location", "/confirmation")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, rec
}

func newTestClient(baseUrl string) *Client {
	return NewClient(Options{BaseUrl: baseUrl, Timeout: 5 * time.Second}, telemetry.NewRecorder())
}

func TestSubmitSuccess(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusFound, http.StatusSeeOther} {
		server, rec := newTestServer(t, status, "")
		client := newTestClient(server.URL)

		body := url.Values{"entry.1": {"A", "B"}, "fbzx": {"tok"}}
		outcome, err := client.Submit(context.Background(), "PUB", body)
		require.NoError(t, err)
		require.Equal(t, status, outcome.Status)
		require.Equal(t, int32(1), rec.calls.Load())
		require.Equal(t, []string{"A", "B"}, rec.form["entry.1"])
		require.Equal(t, "tok", rec.form.Get("fbzx"))
	}
}

func TestSubmitRejected(t *testing.T) {
	server, rec := newTestServer(t, http.StatusBadRequest, strings.Repeat("x", 2000))
	client := newTestClient(server.URL)

	_, err := client.Submit(context.Background(), "PUB", url.Values{})
	require.ErrorIs(t, err, ErrRejected)

	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	require.Equal(t, http.StatusBadRequest, rejected.Status)
	require.Len(t, rejected.Body, maxErrorBody)
	// never retried
	require.Equal(t, int32(1), rec.calls.Load())
}

func TestSubmitTransportError(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, "")
	server.Close()

	_, err := newTestClient(server.URL).Submit(context.Background(), "PUB", url.Values{})
	require.ErrorIs(t, err, ErrTransport)
	require.NotErrorIs(t, err, ErrRejected)
}
