package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "   "}); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewClient(Config{URL: "not a url"}); err == nil {
		t.Fatal("expected error for malformed url")
	}
	if _, err := NewClient(Config{URL: "https://hooks.example.com/approvals"}); err != nil {
		t.Fatalf("valid url rejected: %v", err)
	}
}

func TestNotifyInterrupt(t *testing.T) {
	t.Parallel()

	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer hook-secret" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, Token: "hook-secret"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	err = c.NotifyInterrupt(context.Background(), "sess-9", "tok-abc", "delete_product", "Delete product with SKU MUG-01")
	if err != nil {
		t.Fatalf("NotifyInterrupt: %v", err)
	}

	want := map[string]string{
		"session_id":  "sess-9",
		"token":       "tok-abc",
		"tool":        "delete_product",
		"description": "Delete product with SKU MUG-01",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("payload[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestNotifyInterruptNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	err = c.NotifyInterrupt(context.Background(), "sess-9", "tok-abc", "delete_product", "desc")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("got %v, want status error", err)
	}
}
