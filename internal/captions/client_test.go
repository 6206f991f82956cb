package captions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"timelines/internal/services"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") != "en" {
			t.Errorf("lang = %q", r.URL.Query().Get("lang"))
		}
		switch r.URL.Query().Get("v") {
		case "good":
			_, _ = w.Write([]byte(`<transcript><text start="0" dur="1">Hello.</text></transcript>`))
		case "empty":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL + "/timedtext", UserAgent: "test"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	got, err := client.Fetch(context.Background(), "good")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(got) != 1 || got[0].Text != "Hello." {
		t.Fatalf("unexpected chunks %+v", got)
	}

	if _, err := client.Fetch(context.Background(), "empty"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for empty track, got %v", err)
	}
	if _, err := client.Fetch(context.Background(), "broken"); !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
	if _, err := client.Fetch(context.Background(), " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientFetchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		switch r.URL.Query().Get("v") {
		case "flaky":
			if n < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`<transcript><text start="1" dur="1">Back.</text></transcript>`))
		case "throttled":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		BaseURL:        srv.URL,
		RetryAttempts:  3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	tests := []struct {
		name      string
		videoID   string
		wantCalls int32
		wantErr   error
	}{
		{name: "recovers after 503", videoID: "flaky", wantCalls: 3},
		{name: "gives up on repeated 429", videoID: "throttled", wantCalls: 4, wantErr: services.ErrFetch},
		{name: "400 is permanent", videoID: "bad", wantCalls: 1, wantErr: services.ErrFetch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls.Store(0)
			got, err := client.Fetch(context.Background(), tt.videoID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else {
				if err != nil {
					t.Fatalf("Fetch returned error: %v", err)
				}
				if len(got) != 1 || got[0].Text != "Back." {
					t.Fatalf("unexpected chunks %+v", got)
				}
			}
			if calls.Load() != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	srtPath := filepath.Join(dir, "captions.SRT")
	if err := os.WriteFile(srtPath, []byte("1\n00:00:02,000 --> 00:00:03,000\nHi.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	xmlPath := filepath.Join(dir, "captions.xml")
	if err := os.WriteFile(xmlPath, []byte(`<transcript><text start="2">Hi.</text></transcript>`), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{srtPath, xmlPath} {
		got, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile(%s): %v", path, err)
		}
		if len(got) != 1 || got[0].Start != 2 || got[0].Text != "Hi." {
			t.Fatalf("LoadFile(%s) = %+v", path, got)
		}
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.xml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
