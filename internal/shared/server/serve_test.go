package server

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsListenFailure(t *testing.T) {
	if err := Run(context.Background(), "not-an-address", http.NotFoundHandler()); err == nil {
		t.Fatalf("expected listen error")
	}
}
