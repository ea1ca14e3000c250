package main

import (
	"bytes"
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"cruxcast/internal/httpapi"
	"cruxcast/internal/pkg/logger"
	"cruxcast/internal/pkg/shutdown"
)

// The shutdown manager runs hooks LIFO, so the registration order in main
// (main-loop first, http-server second) drains the control server before
// the loop stops. An in-flight request must finish while the loop context
// is still live, otherwise its dispatch would land in a queue nothing
// drains.
func TestShutdownDrainsServerBeforeLoopStops(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "debug", Format: "json", Output: &buf})

	mgr := shutdown.NewManager(log, 5*time.Second)
	loopCtx, stopLoop := context.WithCancel(context.Background())

	entered := make(chan struct{})
	release := make(chan struct{})
	var loopStoppedMidRequest atomic.Bool

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		if loopCtx.Err() != nil {
			loopStoppedMidRequest.Store(true)
		}
		w.WriteHeader(http.StatusAccepted)
	})

	server := httpapi.NewServer(handler, log)
	if bound := server.Start([]string{"127.0.0.1:0"}); bound != 1 {
		t.Fatal("expected listener to bind")
	}
	addr := server.Addrs()[0]

	// Same order as main.
	mgr.RegisterSimple("main-loop", stopLoop)
	mgr.Register("http-server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	reqDone := make(chan error, 1)
	go func() {
		res, err := http.Get("http://" + addr + "/render")
		if err == nil {
			res.Body.Close()
		}
		reqDone <- err
	}()

	<-entered
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	mgr.Shutdown()

	if err := <-reqDone; err != nil {
		t.Fatalf("in-flight request failed during shutdown: %v", err)
	}
	if loopStoppedMidRequest.Load() {
		t.Error("main loop stopped before the control server drained")
	}
	if loopCtx.Err() == nil {
		t.Error("expected loop context cancelled after shutdown completed")
	}
}
