package stylesheet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"webwrap/internal/testutils"
)

func newTestFetcher(timeout time.Duration) (*Fetcher, *testutils.RecordingLogger) {
	logger := &testutils.RecordingLogger{}
	return NewFetcher("webwrap-test", timeout, logger), logger
}

func TestFetcher_Fetch(t *testing.T) {
	var gotUA atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.UserAgent())
		w.Header().Set("Content-Type", "text/css")
		w.Write([]byte("body { background: #111; }"))
	}))
	defer server.Close()

	fetcher, logger := newTestFetcher(time.Second)

	css := fetcher.Fetch(context.Background(), server.URL+"/theme.css")
	if css != "body { background: #111; }" {
		t.Errorf("Fetch() = %q", css)
	}
	if ua, _ := gotUA.Load().(string); ua != "webwrap-test" {
		t.Errorf("user agent = %q", ua)
	}
	if logger.Count("warn") != 0 {
		t.Errorf("unexpected warnings: %+v", logger.Entries())
	}
}

func TestFetcher_FetchEveryPageLoad(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("a {}"))
	}))
	defer server.Close()

	fetcher, _ := newTestFetcher(time.Second)
	for i := 0; i < 3; i++ {
		if css := fetcher.Fetch(context.Background(), server.URL); css != "a {}" {
			t.Fatalf("fetch %d = %q", i, css)
		}
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}

func TestFetcher_EmptyURL(t *testing.T) {
	fetcher, logger := newTestFetcher(time.Second)
	if css := fetcher.Fetch(context.Background(), ""); css != "" {
		t.Errorf("Fetch(\"\") = %q", css)
	}
	if len(logger.Entries()) != 0 {
		t.Errorf("empty url should not log, got %+v", logger.Entries())
	}
}

func TestFetcher_FailuresDegradeToEmpty(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer notFound.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		w.Write([]byte("late {}"))
	}))
	defer slow.Close()

	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name string
		url  string
	}{
		{"non-2xx status", notFound.URL + "/theme.css"},
		{"network failure", closedURL + "/theme.css"},
		{"timeout", slow.URL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher, logger := newTestFetcher(200 * time.Millisecond)

			if css := fetcher.Fetch(context.Background(), tt.url); css != "" {
				t.Errorf("Fetch() = %q, want empty", css)
			}
			if !logger.Contains("warn", "Custom stylesheet unavailable") {
				t.Errorf("expected a warning, got %+v", logger.Entries())
			}
		})
	}
}

func TestFetcher_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("a {}"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher, _ := newTestFetcher(time.Second)
	if css := fetcher.Fetch(ctx, server.URL); css != "" {
		t.Errorf("Fetch() with cancelled context = %q", css)
	}
}
