package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestHTTPFetcher_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "foodcost-cli/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte("item,pack,price\n"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{HostRate: 1000, HostBurst: 100})
	body, err := f.Download(context.Background(), srv.URL+"/feed.csv")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "item,pack,price\n", string(data))
}

func TestHTTPFetcher_DownloadRetriesOn500(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{HostRate: 1000, HostBurst: 100})
	body, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	body.Close()
	assert.Equal(t, int32(2), attempts.Load())
}

func TestHTTPFetcher_DownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{HostRate: 1000, HostBurst: 100})
	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPFetcher_DownloadToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("sheet contents"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{HostRate: 1000, HostBurst: 100})
	path := filepath.Join(t.TempDir(), "feed.csv")
	n, err := f.DownloadToFile(context.Background(), srv.URL, path)
	require.NoError(t, err)
	assert.Equal(t, int64(len("sheet contents")), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sheet contents", string(data))
}

func TestHTTPFetcher_DownloadIfChanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{HostRate: 1000, HostBurst: 100})

	body, etag, changed, err := f.DownloadIfChanged(context.Background(), srv.URL, "")
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, `"v1"`, etag)
	body.Close()

	body, etag, changed, err = f.DownloadIfChanged(context.Background(), srv.URL, `"v1"`)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, body)
	assert.Equal(t, `"v1"`, etag)
}

func TestHTTPFetcher_HeadETag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("ETag", `"abc"`)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{HostRate: 1000, HostBurst: 100})
	etag, err := f.HeadETag(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, etag)
}

func TestHTTPFetcher_LazyLimiterPerHost(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{HostRate: 5, HostBurst: 5})

	a := f.limiterFor("https://feeds.vendor-a.com/sheet.csv")
	b := f.limiterFor("https://feeds.vendor-b.com/sheet.csv")
	again := f.limiterFor("https://feeds.vendor-a.com/other.csv")

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
}

func TestAdaptiveLimiter_Tuning(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 10)

	lim.OnRateLimit()
	assert.InDelta(t, 5.0, float64(lim.Limit()), 0.001)

	// Floor at initial/4.
	lim.OnRateLimit()
	lim.OnRateLimit()
	assert.InDelta(t, 2.5, float64(lim.Limit()), 0.001)

	// Recovery is capped at 2x initial.
	for range 20 {
		lim.OnSuccess()
	}
	assert.InDelta(t, 20.0, float64(lim.Limit()), 0.001)
	assert.Equal(t, rate.Limit(20), lim.Limit())
}
