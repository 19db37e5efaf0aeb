package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestGETSendsQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "fed" {
			t.Errorf("Expected q=fed, got %q", r.URL.Query().Get("q"))
		}
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("Expected api key header, got %q", r.Header.Get("X-Api-Key"))
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHeader("X-Api-Key", "secret"))
	resp, err := c.GET(context.Background(), "/v2/everything", url.Values{"q": {"fed"}})
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := resp.ParseJSON(&body); err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("Expected status ok, got %s", body.Status)
	}
}

func TestDoWithRetryRecovers(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	req := NewRequest(http.MethodGet, "/markets")
	cfg := &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, Multiplier: 1}

	if _, err := c.DoWithRetry(req, cfg); err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDoWithRetryStopsOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.DoWithRetry(NewRequest(http.MethodGet, "/"), &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond})
	if err == nil {
		t.Fatal("Expected error")
	}

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 StatusError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single call, got %d", calls)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
