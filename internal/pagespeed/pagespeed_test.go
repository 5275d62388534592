package pagespeed

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/retry"
)

const sampleResponse = `{
  "id": "https://example.org/",
  "lighthouseResult": {
    "finalUrl": "https://example.org/",
    "categories": {"performance": {"score": 0.874}},
    "audits": {
      "speed-index": {"title": "Speed Index", "displayValue": "1.2 s"},
      "first-contentful-paint": {"title": "First Contentful Paint", "displayValue": "0.8 s"},
      "unrelated": {"title": "Ignored", "displayValue": "x"}
    }
  }
}`

func TestRunParsesScoreAndStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://example.org/", r.URL.Query().Get("url"))
		assert.Equal(t, "desktop", r.URL.Query().Get("strategy"))
		assert.Equal(t, "k3y", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	rep, err := NewClient(srv.URL, "k3y", 5*time.Second).Run(context.Background(), "https://example.org/", "desktop")
	require.NoError(t, err)
	assert.Equal(t, 87, rep.Score)
	assert.Equal(t, []Stat{
		{ID: "first-contentful-paint", Title: "First Contentful Paint", Value: "0.8 s"},
		{ID: "speed-index", Title: "Speed Index", Value: "1.2 s"},
	}, rep.Stats)

	var buf bytes.Buffer
	rep.Log(slog.New(slog.NewTextHandler(&buf, nil)))
	assert.Contains(t, buf.String(), "score=87")
	assert.Contains(t, buf.String(), `metric="Speed Index"`)
}

func TestRunOmitsEmptyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["key"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	rep, err := NewClient(srv.URL, "", time.Second).Run(context.Background(), "https://example.org/", "mobile")
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Score)
	assert.Equal(t, "https://example.org/", rep.URL)
}

func TestRunAPIError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Invalid url"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second).WithRetry(retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 3))
	_, err := c.Run(context.Background(), "https://example.org/", "desktop")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	assert.Contains(t, err.Error(), "Invalid url")
}

func TestRunRequiresURL(t *testing.T) {
	_, err := NewClient("http://unused", "", time.Second).Run(context.Background(), "", "desktop")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestRunRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte(sampleResponse))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second).WithRetry(retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 2))
	rep, err := c.Run(context.Background(), "https://example.org/", "desktop")
	require.NoError(t, err)
	assert.Equal(t, 87, rep.Score)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second).WithRetry(retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 1))
	_, err := c.Run(context.Background(), "https://example.org/", "desktop")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	assert.Equal(t, int32(2), calls.Load())
}
