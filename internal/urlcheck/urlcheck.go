// Package urlcheck implements the core.URLValidator collaborator consumed
// by S4 Citations: it probes a citation URL and classifies the response,
// maintaining a per-host concurrency cap so a single origin is never
// hammered by a burst of citation probes (spec §5).
package urlcheck

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"seoforge/internal/core"
)

// Validator probes URLs with an HTTP client, falling back from HEAD to GET
// when a server rejects HEAD requests.
type Validator struct {
	client     *http.Client
	perHostCap int
	hostSems   map[string]chan struct{}
	hostSemsMu sync.Mutex
}

// NewValidator constructs a Validator. perHostConcurrency bounds
// simultaneous in-flight requests to the same host (spec §5: default 4).
func NewValidator(perHostConcurrency int) *Validator {
	if perHostConcurrency <= 0 {
		perHostConcurrency = 4
	}
	return &Validator{
		client:     &http.Client{Timeout: 10 * time.Second},
		perHostCap: perHostConcurrency,
		hostSems:   make(map[string]chan struct{}),
	}
}

// Probe implements core.URLValidator.
func (v *Validator) Probe(ctx context.Context, rawURL string, timeoutSeconds int) (*core.ProbeResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return &core.ProbeResult{Classification: core.ProbeHard}, nil
	}

	sem := v.hostSemaphore(parsed.Host)
	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	result, err := v.doProbe(reqCtx, http.MethodHead, rawURL)
	if err == nil && result.StatusCode != 0 && result.StatusCode != http.StatusMethodNotAllowed {
		return result, nil
	}

	return v.doProbe(reqCtx, http.MethodGet, rawURL)
}

func (v *Validator) doProbe(ctx context.Context, method, rawURL string) (*core.ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return &core.ProbeResult{Classification: core.ProbeHard}, nil
	}

	resp, err := v.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &core.ProbeResult{Classification: core.ProbeTransient}, nil
		}
		return &core.ProbeResult{Classification: core.ProbeTransient}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	return &core.ProbeResult{
		StatusCode:     resp.StatusCode,
		FinalURL:       resp.Request.URL.String(),
		Classification: classify(resp.StatusCode),
	}, nil
}

func classify(statusCode int) core.ProbeClassification {
	switch {
	case statusCode >= 200 && statusCode < 400:
		return core.ProbeOK
	case statusCode == http.StatusTooManyRequests, statusCode >= 500:
		return core.ProbeTransient
	case statusCode >= 400:
		return core.ProbeHard
	default:
		return core.ProbeTransient
	}
}

func (v *Validator) hostSemaphore(host string) chan struct{} {
	v.hostSemsMu.Lock()
	defer v.hostSemsMu.Unlock()
	sem, ok := v.hostSems[host]
	if !ok {
		sem = make(chan struct{}, v.perHostCap)
		v.hostSems[host] = sem
	}
	return sem
}
