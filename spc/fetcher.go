package spc

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/tidwall/gjson"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultRequestTimeout = 10 * time.Second

type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Fetcher performs requests against the SPC Web Gateway REST API. Failures of any kind are logged and reported
// as an absent result, callers abort the current operation rather than retry.
type Fetcher struct {
	client  Doer
	baseURL *url.URL
	timeout time.Duration
	logger  logwrap.Logger
	metrics *Metrics

	// arrayWrapped lists resource kinds which return a single element array when fetched by id.
	arrayWrapped map[Resource]bool
}

func NewFetcher(client Doer, baseURL *url.URL, timeout time.Duration, arrayWrapped []Resource) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	if client == nil {
		client = &http.Client{}
	}

	wrapped := make(map[Resource]bool, len(arrayWrapped))
	for _, r := range arrayWrapped {
		wrapped[r] = true
	}

	return &Fetcher{
		client:       client,
		baseURL:      baseURL,
		timeout:      timeout,
		logger:       logwrap.New(discard.Discard()),
		arrayWrapped: wrapped,
	}
}

func (f *Fetcher) resolve(path string) string {
	ref := &url.URL{Path: path}
	return f.baseURL.ResolveReference(ref).String()
}

func (f *Fetcher) Request(ctx context.Context, method string, target string) (gjson.Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		f.logger.LogError(ctx, "Failed to construct request to SPC web gateway.", logwrap.Datum("url", target), logwrap.Err(err))
		return gjson.Result{}, false
	}

	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.LogError(ctx, "Request to SPC web gateway failed.", logwrap.Datum("method", method), logwrap.Datum("url", target), logwrap.Err(err))
		f.metrics.fetchFailed(method)
		return gjson.Result{}, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.LogError(ctx, "Failed to read response from SPC web gateway.", logwrap.Datum("url", target), logwrap.Err(err))
		f.metrics.fetchFailed(method)
		return gjson.Result{}, false
	}

	if resp.StatusCode != http.StatusOK {
		f.logger.LogError(ctx, "SPC web gateway returned unexpected status.", logwrap.Datum("url", target), logwrap.Datum("status", resp.StatusCode))
		f.metrics.fetchFailed(method)
		return gjson.Result{}, false
	}

	if !gjson.ValidBytes(body) {
		f.logger.LogError(ctx, "SPC web gateway returned invalid JSON.", logwrap.Datum("url", target))
		f.metrics.fetchFailed(method)
		return gjson.Result{}, false
	}

	return gjson.ParseBytes(body), true
}

// Resource fetches a single resource by id, unwrapping the enclosing array for resource kinds known to wrap.
func (f *Fetcher) Resource(ctx context.Context, kind Resource, id string) (gjson.Result, bool) {
	data, ok := f.Request(ctx, http.MethodGet, f.resolve(fmt.Sprintf("spc/%s/%s", kind, id)))
	if !ok {
		return gjson.Result{}, false
	}

	result := data.Get(fmt.Sprintf("data.%s", kind))
	if !result.Exists() {
		return gjson.Result{}, false
	}

	if f.arrayWrapped[kind] && result.IsArray() {
		items := result.Array()
		if len(items) == 0 {
			return gjson.Result{}, false
		}

		return items[0], true
	}

	return result, true
}

func (f *Fetcher) Collection(ctx context.Context, kind Resource) ([]gjson.Result, bool) {
	data, ok := f.Request(ctx, http.MethodGet, f.resolve(fmt.Sprintf("spc/%s", kind)))
	if !ok {
		return nil, false
	}

	result := data.Get(fmt.Sprintf("data.%s", kind))
	if !result.Exists() {
		return nil, false
	}

	if result.IsObject() {
		return []gjson.Result{result}, true
	}

	items := result.Array()
	if len(items) == 0 {
		return nil, false
	}

	return items, true
}
