package perception

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCompleteWithSystem_BackoffStopsOnCancelledContext(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewGeminiClientWithConfig(GeminiConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.CompleteWithSystem(ctx, "", "hello")
	elapsed := time.Since(start)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("CompleteWithSystem() error = %v, want context.DeadlineExceeded", err)
	}
	// The first backoff interval is a full second; cancellation must cut it
	// short instead of sleeping it out.
	if elapsed > 800*time.Millisecond {
		t.Errorf("returned after %v, backoff ignored the cancelled context", elapsed)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (no retry after cancellation)", requests)
	}
}

func TestCompleteWithSystem_NoAPIKey(t *testing.T) {
	client := NewGeminiClient("")
	if _, err := client.Complete(context.Background(), "hello"); err == nil {
		t.Error("Complete() expected error without an API key")
	}
}
