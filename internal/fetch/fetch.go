// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/staranto/dpcviz/internal/cacheutil"
)

// ErrStatus is returned when the server answers with a non-2xx status.
var ErrStatus = errors.New("unexpected HTTP status")

// Getter retrieves the body behind a URL.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Client is the default Getter. It does a single GET per call; there is no
// retry. When Cache is set, bodies are read from and written to it.
type Client struct {
	HTTP  *http.Client
	Cache *cacheutil.Cache
}

// NewClient returns a Client using a non-shared cleanhttp client.
func NewClient(cache *cacheutil.Cache) *Client {
	return &Client{
		HTTP:  cleanhttp.DefaultClient(),
		Cache: cache,
	}
}

// Get implements Getter.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if c.Cache != nil {
		if err := c.Cache.Purge(); err != nil {
			log.WithError(err).Warn("failed to purge cache")
		}
		if entry, ok := c.Cache.Read(url); ok {
			log.Debugf("cache hit: %s", entry.Path)
			return entry.Data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	hc := c.HTTP
	if hc == nil {
		hc = cleanhttp.DefaultClient()
	}

	log.Debugf("GET %s", url)
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s for %s", ErrStatus, resp.Status, url)
	}

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.Cache != nil {
		if err := c.Cache.Write(url, doc.Bytes()); err != nil {
			log.WithError(err).Warnf("failed to write %s to cache", url)
		}
	}

	return doc.Bytes(), nil
}
