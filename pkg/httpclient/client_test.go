package httpclient

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server, mutate func(*Options)) *Client {
	t.Helper()
	opts := Options{
		BaseURL:        srv.URL,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
		RateLimit:      1000,
		RateBurst:      1000,
	}
	if mutate != nil {
		mutate(&opts)
	}
	client, err := New(opts)
	require.NoError(t, err)
	return client
}

func TestDoRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, nil)
	resp, err := client.Get(context.Background(), "/v1/thing", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such node", http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, nil)
	_, err := client.Get(context.Background(), "/v1/thing", nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.EqualValues(t, 1, calls.Load())
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, nil)
	_, err := client.Get(context.Background(), "/v1/thing", nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	// Initial attempt plus MaxRetries.
	assert.EqualValues(t, 3, calls.Load())
}

func TestAuthHeadersApplied(t *testing.T) {
	t.Parallel()

	var gotFigma, gotBasic string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFigma = r.Header.Get("X-Figma-Token")
		gotBasic = r.Header.Get("Authorization")
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	figma := newTestClient(t, srv, func(o *Options) {
		o.Auth = HeaderToken{Header: "X-Figma-Token", Token: "figd_secret"}
	})
	_, err := figma.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, "figd_secret", gotFigma)

	basic := newTestClient(t, srv, func(o *Options) {
		o.Auth = BasicAuth{Username: "svc@example.com", Password: "token"}
	})
	_, err = basic.Get(context.Background(), "/", nil)
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("svc@example.com:token"))
	assert.Equal(t, want, gotBasic)

	bearer := newTestClient(t, srv, func(o *Options) {
		o.Auth = BearerToken{Token: "opaque"}
	})
	_, err = bearer.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer opaque", gotBasic)
}

func TestAbsoluteURLRequestsSkipAuth(t *testing.T) {
	t.Parallel()

	// Stands in for the signed download host: credentials for the API must
	// never show up here.
	var gotToken, gotAuthorization string
	download := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Figma-Token")
		gotAuthorization = r.Header.Get("Authorization")
		w.Write([]byte("png-bytes"))
	}))
	defer download.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer api.Close()

	client := newTestClient(t, api, func(o *Options) {
		o.Auth = HeaderToken{Header: "X-Figma-Token", Token: "figd_secret"}
	})

	resp, err := client.Do(context.Background(), &Request{
		Method:      http.MethodGet,
		AbsoluteURL: download.URL + "/renders/abc.png",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, gotToken)
	assert.Empty(t, gotAuthorization)
}

func TestRetriesTakeRateLimiterTokens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	// One token available, the next one far beyond the context deadline: the
	// retry attempt must stop at the limiter instead of hitting the server.
	client := newTestClient(t, srv, func(o *Options) {
		o.RateLimit = 0.001
		o.RateBurst = 1
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "/v1/thing", nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "rate limiter")
	assert.EqualValues(t, 1, calls.Load())
}

func TestPostJSONSetsContentType(t *testing.T) {
	t.Parallel()

	var contentType, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		buf, _ := io.ReadAll(r.Body)
		body = string(buf)
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, nil)
	_, err := client.PostJSON(context.Background(), "/pages", map[string]string{"title": "Subscription"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `{"title": "Subscription"}`, body)
}

func TestNewRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	require.Error(t, err)
}

func TestRetryableClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, Retryable(&HTTPError{StatusCode: 502}))
	assert.True(t, Retryable(&HTTPError{StatusCode: http.StatusTooManyRequests}))
	assert.False(t, Retryable(&HTTPError{StatusCode: 403}))
	assert.False(t, Retryable(context.Canceled))
}
