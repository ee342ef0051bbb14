package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coverart/internal/cover"
	"coverart/internal/logging"

	"github.com/hashicorp/go-retryablehttp"
)

// remoteClient talks to a running coverartd.
type remoteClient struct {
	base   string
	client *retryablehttp.Client
}

func newRemoteClient(base string) *remoteClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = retryLogger{log: logging.For("remote")}

	return &remoteClient{
		base:   strings.TrimRight(base, "/"),
		client: client,
	}
}

func (c *remoteClient) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return resp, nil
}

// cover fetches one rendition so the server caches it and reports where it
// came from.
func (c *remoteClient) cover(ctx context.Context, kind cover.EntityKind, id int64, width int) (string, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/api/cover/%s/%d?size=%d", kind, id, width))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return "", err
	}
	return resp.Header.Get("X-Cover-Source"), nil
}

func (c *remoteClient) stats(ctx context.Context) (cover.Stats, error) {
	var stats cover.Stats

	resp, err := c.get(ctx, "/api/cover/stats")
	if err != nil {
		return stats, err
	}
	defer resp.Body.Close()

	err = json.NewDecoder(resp.Body).Decode(&stats)
	return stats, err
}

// retryLogger adapts the component logger to retryablehttp.LeveledLogger.
type retryLogger struct {
	log *logging.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error("%s %v", msg, keysAndValues)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn("%s %v", msg, keysAndValues)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("%s %v", msg, keysAndValues)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug("%s %v", msg, keysAndValues)
}
