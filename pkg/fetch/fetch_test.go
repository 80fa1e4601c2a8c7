package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	verrors "github.com/verscout/verscout/pkg/errors"
)

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Write([]byte(`{"tag_name": "v1.2.3"}`))
	}))
	defer server.Close()

	f := NewHTTPFetcher(nil)
	var resp struct {
		TagName string `json:"tag_name"`
	}
	if err := f.GetJSON(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("GetJSON error: %v", err)
	}
	if resp.TagName != "v1.2.3" {
		t.Errorf("TagName = %q, want %q", resp.TagName, "v1.2.3")
	}
}

func TestGetJSONParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(nil)
	var v map[string]any
	err := f.GetJSON(context.Background(), server.URL, &v)
	if !verrors.Is(err, verrors.ErrCodeParseFailure) {
		t.Errorf("want PARSE_FAILURE, got %v", err)
	}
	if verrors.Transient(err) {
		t.Error("parse failures must be permanent")
	}
}

func TestGetText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Firefox 133.0 is available"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(nil)
	text, err := f.GetText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetText error: %v", err)
	}
	if !strings.Contains(text, "133.0") {
		t.Errorf("text = %q", text)
	}
}

func TestDefaultHeaders(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(map[string]string{"User-Agent": "verscout/test"})
	var v map[string]any
	if err := f.GetJSON(context.Background(), server.URL, &v); err != nil {
		t.Fatalf("GetJSON error: %v", err)
	}
	if got != "verscout/test" {
		t.Errorf("User-Agent = %q", got)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status    int
		code      verrors.Code
		transient bool
	}{
		{http.StatusNotFound, verrors.ErrCodeNotFound, false},
		{http.StatusGone, verrors.ErrCodeNotFound, false},
		{http.StatusForbidden, verrors.ErrCodeNotFound, false},
		{http.StatusTooManyRequests, verrors.ErrCodeRateLimited, true},
		{http.StatusInternalServerError, verrors.ErrCodeSourceUnavailable, true},
		{http.StatusBadGateway, verrors.ErrCodeSourceUnavailable, true},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		f := NewHTTPFetcher(nil)
		_, err := f.GetText(context.Background(), server.URL)
		server.Close()

		if !verrors.Is(err, tt.code) {
			t.Errorf("status %d: code = %q, want %q", tt.status, verrors.GetCode(err), tt.code)
		}
		if verrors.Transient(err) != tt.transient {
			t.Errorf("status %d: Transient = %v, want %v", tt.status, verrors.Transient(err), tt.transient)
		}
	}
}

func TestRetryAfterHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := NewHTTPFetcher(nil)
	_, err := f.GetText(context.Background(), server.URL)
	if !strings.Contains(err.Error(), "30") {
		t.Errorf("expected Retry-After seconds in error, got %v", err)
	}
}

func TestConnectionError(t *testing.T) {
	f := NewHTTPFetcher(nil)
	// Reserved TEST-NET address, nothing listens here.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := f.GetText(ctx, "http://192.0.2.1:9/")
	if err == nil {
		t.Fatal("expected error")
	}
	if !verrors.Transient(err) {
		t.Errorf("connection errors must be transient, got %v", err)
	}
}

func TestHost(t *testing.T) {
	if got := Host("https://api.github.com/repos/x/y/releases"); got != "api.github.com" {
		t.Errorf("Host = %q", got)
	}
	if got := Host("://bad"); got != "" {
		t.Errorf("Host on invalid URL = %q, want empty", got)
	}
}
