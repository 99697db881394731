// Package restyutil writes full http exchanges of a resty client to disk,
// which is mostly useful to look at the exact page a scrape saw.
package restyutil

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type Output interface {
	Write(name string, contents string)
}

type DirectoryOutput struct {
	directory string
}

// NewDirectoryOutput creates dir if it does not exist. Files of an earlier
// run are overwritten as ids restart at 1.
func NewDirectoryOutput(dir string) (DirectoryOutput, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return DirectoryOutput{}, fmt.Errorf("create dump directory: %w", err)
	}
	return DirectoryOutput{directory: dir}, nil
}

func (o DirectoryOutput) Write(name string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0o600)
	if err != nil {
		slog.Warn("write http dump", "name", name, "err", err)
	}
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out strings.Builder
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(&out, "%s: %s\n", k, v)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	read, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(read)
}

// 1: request method
// 2: request url
// 3: request headers
// 4: request body
// 5: response status
// 6: response headers
// 7: response body
const messageTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s

%s

%s`

func formatMessage(res *resty.Response) string {
	var requestHeaders http.Header
	if res.Request.RawRequest != nil {
		requestHeaders = res.Request.RawRequest.Header
	}
	return fmt.Sprintf(
		messageTemplate,
		res.Request.Method, res.Request.URL,
		formatHeaders(requestHeaders),
		formatRequestBody(res.Request.RawRequest),
		res.Status(),
		formatHeaders(res.Header()),
		res.String(),
	)
}

// Dump writes every response the client receives to output, named
// "<prefix>-<n>-<method>.txt". A nil output leaves the client untouched.
func Dump(client *resty.Client, prefix string, output Output) {
	if output == nil {
		return
	}
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		n := atomic.AddUint64(&counter, 1)
		name := fmt.Sprintf("%s-%03d-%s.txt", prefix, n, strings.ToLower(res.Request.Method))
		output.Write(name, formatMessage(res))
		return nil
	})
}
