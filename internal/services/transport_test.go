package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func brotliBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatalf("brotli write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("brotli close: %v", err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func newTestFetcher(opts HTTPClientOptions) *HTTPFetcher {
	if opts.Headers == nil {
		opts.Headers = SnkrdunkHeaders()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	return NewHTTPFetcher(NewHTTPClient(opts), "test")
}

func TestFetchJSONDecodesContentEncodings(t *testing.T) {
	const body = `{"items":[{"id":1}]}`

	tests := []struct {
		encoding string
		payload  func(t *testing.T) []byte
	}{
		{"br", func(t *testing.T) []byte { return brotliBytes(t, body) }},
		{"gzip", func(t *testing.T) []byte { return gzipBytes(t, body) }},
		{"", func(t *testing.T) []byte { return []byte(body) }},
	}

	for _, tt := range tests {
		t.Run("encoding="+tt.encoding, func(t *testing.T) {
			payload := tt.payload(t)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Referer") != "https://snkrdunk.com/" {
					t.Errorf("Referer = %q", r.Header.Get("Referer"))
				}
				if r.Header.Get("Accept-Encoding") != "gzip, deflate, br" {
					t.Errorf("Accept-Encoding = %q", r.Header.Get("Accept-Encoding"))
				}
				if r.URL.Query().Get("keyword") != "pikachu" {
					t.Errorf("keyword = %q", r.URL.Query().Get("keyword"))
				}
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write(payload)
			}))
			defer server.Close()

			v, err := newTestFetcher(HTTPClientOptions{}).FetchJSON(context.Background(), server.URL, url.Values{"keyword": {"pikachu"}})
			if err != nil {
				t.Fatalf("FetchJSON: %v", err)
			}
			if got := ExtractRecords(v); len(got) != 1 {
				t.Errorf("got %d records, want 1", len(got))
			}
		})
	}
}

func TestFetchJSONStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("Access denied"))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte("<html>not json</html>"))
		}
	}))
	defer server.Close()

	f := newTestFetcher(HTTPClientOptions{})

	_, err := f.FetchJSON(context.Background(), server.URL+"/forbidden", nil)
	if !IsBlocked(err) {
		t.Errorf("expected blocked error, got %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.Body != "Access denied" {
		t.Errorf("status error = %+v", statusErr)
	}

	_, err = f.FetchJSON(context.Background(), server.URL+"/broken", nil)
	if StatusCodeOf(err) != http.StatusInternalServerError || IsBlocked(err) {
		t.Errorf("expected 500 error, got %v", err)
	}

	_, err = f.FetchJSON(context.Background(), server.URL+"/html", nil)
	if err == nil || StatusCodeOf(err) != 0 {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestHTTPClientPacesRequests(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	// burst 1 at 0.5 rps: the second call has to wait two seconds
	f := newTestFetcher(HTTPClientOptions{RequestsPerSecond: 0.5})
	if _, err := f.FetchJSON(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("first request: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := f.FetchJSON(ctx, server.URL, nil); err == nil {
		t.Error("second request should wait on the limiter and hit the deadline")
	}
	if hits.Load() != 1 {
		t.Errorf("server saw %d requests, want 1", hits.Load())
	}
}

func TestTruncate(t *testing.T) {
	if truncate("short", 10) != "short" {
		t.Error("short strings should not change")
	}
	if truncate("abcdef", 3) != "abc..." {
		t.Errorf("truncate = %q", truncate("abcdef", 3))
	}
}
