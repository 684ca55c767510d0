// Package checker probes physical file copies over HTTP.
package checker

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds each HTTP request.
const DefaultTimeout = 10 * time.Second

// DefaultWorkers is the fan-out width for path checks.
const DefaultWorkers = 4

// Result is the observation for a single physical copy. Transport
// failures land in Status rather than being returned as errors.
type Result struct {
	URL          string
	Status       string
	LastModified string
	Length       int64
	HasLength    bool
	Hash         string
	NotFound     bool
}

// Checker applies one check policy to every path URL.
type Checker struct {
	Client  *http.Client
	Policy  Policy
	Digest  Digest
	Workers int
}

// New returns a Checker with a timeout-bounded HTTP client.
func New(policy Policy, digest Digest, timeout time.Duration, workers int) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Checker{
		Client:  &http.Client{Timeout: timeout},
		Policy:  policy,
		Digest:  digest,
		Workers: workers,
	}
}

// Check probes every URL and returns one Result per URL in input order,
// regardless of completion order. PolicyPrint performs no network I/O.
func (c *Checker) Check(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))

	if c.Policy == PolicyPrint {
		for i, u := range urls {
			results[i] = Result{URL: u}
		}
		return results
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i] = c.checkOne(ctx, u)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // checks never return errors
	return results
}

func (c *Checker) checkOne(ctx context.Context, rawURL string) Result {
	res := Result{URL: rawURL}

	method := http.MethodGet
	if c.Policy == PolicyStat {
		method = http.MethodHead
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		res.Status = err.Error()
		return res
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		res.Status = err.Error()
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.Status
	res.LastModified = resp.Header.Get("Last-Modified")
	res.NotFound = resp.StatusCode == http.StatusNotFound ||
		resp.StatusCode == http.StatusGone

	if c.Policy == PolicyStat {
		if resp.ContentLength >= 0 {
			res.Length = resp.ContentLength
			res.HasLength = true
		}
		return res
	}

	// Fetch: only a successful response has a body worth hashing.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return res
	}
	h := c.Digest.New()
	n, err := io.Copy(h, resp.Body)
	if err != nil {
		res.Status = fmt.Sprintf("%s (read body: %v)", resp.Status, err)
		return res
	}
	res.Hash = hex.EncodeToString(h.Sum(nil))
	res.Length = n
	res.HasLength = true
	return res
}
