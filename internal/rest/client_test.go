package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/walletdesk/bitget-relay/internal/auth"
)

func testCreds() auth.Credentials {
	return auth.Credentials{APIKey: "test-key", Secret: "test-secret", Passphrase: "test-phrase"}
}

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("")

		if c.baseURL != DefaultBaseURL {
			t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
		if c.retryBackoff != time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, time.Second)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("https://api.example.com",
			WithTimeout(15*time.Second),
			WithRetries(10, 500*time.Millisecond),
			WithLogger(logger),
		)
		if c.baseURL != "https://api.example.com" {
			t.Errorf("baseURL = %q", c.baseURL)
		}
		if c.httpClient.Timeout != 15*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 15*time.Second)
		}
		if c.maxRetries != 10 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 10)
		}
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
	})
}

func TestGetEarnAssets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/earn/account/assets" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("coin"); got != "USDT" {
			t.Errorf("coin query = %q, want USDT", got)
		}

		if got := r.Header.Get("ACCESS-KEY"); got != "test-key" {
			t.Errorf("ACCESS-KEY = %q", got)
		}
		if got := r.Header.Get("ACCESS-PASSPHRASE"); got != "test-phrase" {
			t.Errorf("ACCESS-PASSPHRASE = %q", got)
		}
		ts := r.Header.Get("ACCESS-TIMESTAMP")
		if ts == "" {
			t.Error("missing ACCESS-TIMESTAMP")
		}
		want := auth.Sign("test-secret", ts, "GET", "/api/v2/earn/account/assets?coin=USDT", "")
		if got := r.Header.Get("ACCESS-SIGN"); got != want {
			t.Errorf("ACCESS-SIGN = %q, want %q", got, want)
		}

		w.Write([]byte(`{"code":"00000","msg":"success","data":[
			{"coin":"USDT","availableAmount":"120.5","frozenAmount":"0","amount":"120.5","productType":"flexible"}
		]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	assets, err := c.GetEarnAssets(context.Background(), testCreds(), "USDT")
	if err != nil {
		t.Fatalf("GetEarnAssets failed: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(assets))
	}
	if assets[0].Coin != "USDT" || assets[0].AvailableAmount != "120.5" {
		t.Errorf("unexpected asset: %+v", assets[0])
	}
}

func TestGetEarnAssets_EnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"40037","msg":"apikey not exists","data":null}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.GetEarnAssets(context.Background(), testCreds(), "USDT")
	if err == nil {
		t.Fatal("expected error for non-success envelope code")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Code != "40037" {
		t.Errorf("Code = %q, want 40037", apiErr.Code)
	}
	if apiErr.IsRetryable() {
		t.Error("envelope error should not be retryable")
	}
}

func TestGetEarnAssets_RetriesOn500(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"code":"00000","msg":"success","data":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(3, time.Millisecond))
	assets, err := c.GetEarnAssets(context.Background(), testCreds(), "BTC")
	if err != nil {
		t.Fatalf("GetEarnAssets failed after retries: %v", err)
	}
	if len(assets) != 0 {
		t.Errorf("expected empty assets, got %d", len(assets))
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestGetEarnAssets_NoRetryOn400(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(3, time.Millisecond))
	if _, err := c.GetEarnAssets(context.Background(), testCreds(), "BTC"); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}
