package vision

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestHTTPClientGetContext(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"sessionid":"avatar-1","visual_context":"a child wearing a school uniform","available":true}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())
	got, ok := client.GetContext(context.Background(), "avatar-1")
	if !ok {
		t.Fatal("expected available context")
	}
	if got != "a child wearing a school uniform" {
		t.Errorf("context = %q", got)
	}
	if gotPath != "/visual-context/avatar-1" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestHTTPClientUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sessionid":"avatar-1","visual_context":"","available":false}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())
	if got, ok := client.GetContext(context.Background(), "avatar-1"); ok || got != "" {
		t.Errorf("expected absorbed miss, got (%q, %v)", got, ok)
	}
}

func TestHTTPClientBlankContextTreatedAsMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sessionid":"avatar-1","visual_context":"   ","available":true}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())
	if got, ok := client.GetContext(context.Background(), "avatar-1"); ok || got != "" {
		t.Errorf("expected absorbed miss, got (%q, %v)", got, ok)
	}
}

func TestHTTPClientAbsorbsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())
	if _, ok := client.GetContext(context.Background(), "avatar-1"); ok {
		t.Error("expected absorbed failure")
	}
}

func TestHTTPClientAbsorbsUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewHTTPClient(server.URL, testLogger())
	if _, ok := client.GetContext(context.Background(), "avatar-1"); ok {
		t.Error("expected absorbed failure")
	}
}

func TestHTTPClientAbsorbsTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewHTTPClient(server.URL, testLogger())
	start := time.Now()
	if _, ok := client.GetContext(ctx, "avatar-1"); ok {
		t.Error("expected absorbed timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout not honored, took %v", elapsed)
	}
}
