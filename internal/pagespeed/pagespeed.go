// Package pagespeed queries the PageSpeed Insights v5 API.
package pagespeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/retry"
)

// Audits reported as page stats, in display order.
var statAudits = []string{
	"first-contentful-paint",
	"largest-contentful-paint",
	"speed-index",
	"total-blocking-time",
	"cumulative-layout-shift",
	"interactive",
	"total-byte-weight",
	"network-requests",
}

// Client calls the PageSpeed Insights API.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	policy     retry.Policy
}

// NewClient returns a client for endpoint that does not retry. apiKey may be empty.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		policy:     retry.NewPolicy(retry.BackoffFixed, 0, 0, 0),
	}
}

// WithRetry sets the policy for transport failures and 429/5xx responses.
func (c *Client) WithRetry(p retry.Policy) *Client {
	c.policy = p
	return c
}

// Stat is one audited metric.
type Stat struct {
	ID    string
	Title string
	Value string
}

// Report is the summary of one analysis.
type Report struct {
	URL      string
	Strategy string
	// Score is the performance category score from 0 to 100.
	Score int
	Stats []Stat
}

type apiResponse struct {
	ID               string `json:"id"`
	LighthouseResult struct {
		FinalURL   string `json:"finalUrl"`
		Categories map[string]struct {
			Score *float64 `json:"score"`
		} `json:"categories"`
		Audits map[string]struct {
			Title        string `json:"title"`
			DisplayValue string `json:"displayValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Run analyses pageURL with strategy ("desktop" or "mobile").
func (c *Client) Run(ctx context.Context, pageURL, strategy string) (*Report, error) {
	if pageURL == "" {
		return nil, errors.ConfigError("pagespeed needs pkg.homepage or pagespeed.url").Build()
	}
	var body []byte
	err := retry.Do(ctx, c.policy, errors.IsRetryable, func(ctx context.Context) error {
		var err error
		body, err = c.fetch(ctx, pageURL, strategy)
		return err
	})
	if err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "invalid pagespeed response").Build()
	}
	return parsed.report(pageURL, strategy), nil
}

// fetch performs one request. Transport errors, 429 and 5xx are transient.
func (c *Client) fetch(ctx context.Context, pageURL, strategy string) ([]byte, error) {
	req, err := c.newRequest(ctx, pageURL, strategy)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.WrapError(err, errors.CategoryNetwork, "pagespeed request failed").
			WithContext("url", pageURL).
			Retryable().
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to read pagespeed response").Retryable().Build()
	}
	if resp.StatusCode >= 400 {
		msg := resp.Status
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		b := errors.NetworkError(fmt.Sprintf("pagespeed API error: %s", msg)).
			WithContext("url", pageURL).
			WithContext("status", resp.StatusCode)
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			b = b.Permanent()
		}
		return nil, b.Build()
	}
	return body, nil
}

func (c *Client) newRequest(ctx context.Context, pageURL, strategy string) (*http.Request, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid pagespeed endpoint").
			WithContext("endpoint", c.endpoint).
			Build()
	}
	q := u.Query()
	q.Set("url", pageURL)
	q.Set("strategy", strategy)
	q.Set("category", "performance")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to build pagespeed request").Build()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "docsite")
	return req, nil
}

func (r *apiResponse) report(pageURL, strategy string) *Report {
	rep := &Report{URL: pageURL, Strategy: strategy}
	if r.LighthouseResult.FinalURL != "" {
		rep.URL = r.LighthouseResult.FinalURL
	}
	if perf, ok := r.LighthouseResult.Categories["performance"]; ok && perf.Score != nil {
		rep.Score = int(math.Round(*perf.Score * 100))
	}
	for _, id := range statAudits {
		a, ok := r.LighthouseResult.Audits[id]
		if !ok {
			continue
		}
		rep.Stats = append(rep.Stats, Stat{ID: id, Title: a.Title, Value: a.DisplayValue})
	}
	return rep
}

// Log writes the score and page stats at info level.
func (r *Report) Log(log *slog.Logger) {
	log.Info("PageSpeed score", logfields.URL(r.URL), slog.String("strategy", r.Strategy), slog.Int("score", r.Score))
	for _, s := range r.Stats {
		log.Info("Page stat", slog.String("metric", s.Title), slog.String("value", s.Value))
	}
}
