package api

import (
	"context"
	"testing"
	"time"

	"github.com/cropinsight/cropinsight-go/internal/conf"
)

func TestServerLifecycle(t *testing.T) {
	c := newTestController(t, func(s *conf.Settings) {
		s.WebServer.Host = "127.0.0.1"
		s.WebServer.Port = "0" // ephemeral port
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx)
	}()

	// Give the listener a moment to come up, then shut down.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
