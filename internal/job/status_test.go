package job

import (
	"sync"
	"testing"
)

func TestStoreSetAndGet(t *testing.T) {
	s := NewStore()

	s.SetQueued("j1")
	st, ok := s.Get("j1")
	if !ok {
		t.Fatal("expected record for j1")
	}
	if st.State != StateQueued || st.Message != "queued" {
		t.Errorf("unexpected status %+v", st)
	}
	if st.FinishedAt != 0 {
		t.Errorf("expected no finish timestamp while queued, got %d", st.FinishedAt)
	}
}

func TestStoreOverwritesWhileRunning(t *testing.T) {
	s := NewStore()
	s.SetQueued("j1")
	s.SetRunning("j1", StageDownloading)
	s.SetRunning("j1", StageRendering)

	st, _ := s.Get("j1")
	if st.State != StateRunning || st.Message != StageRendering {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestStoreTerminalIsFinal(t *testing.T) {
	s := NewStore()
	s.SetQueued("j1")
	if !s.SetTerminal("j1", StateFailed, "capture failed") {
		t.Fatal("terminal write rejected")
	}

	if s.SetRunning("j1", StageUploading) {
		t.Error("expected write after terminal state to be dropped")
	}
	if s.SetTerminal("j1", StateCompleted, "completed") {
		t.Error("expected second terminal write to be dropped")
	}

	st, _ := s.Get("j1")
	if st.State != StateFailed || st.Message != "capture failed" {
		t.Errorf("terminal record mutated: %+v", st)
	}
	if st.FinishedAt == 0 {
		t.Error("expected finish timestamp on terminal record")
	}
}

func TestStoreUnknownID(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get("nope"); ok {
		t.Error("expected no record for unknown id")
	}

	syn := Unknown("nope")
	if syn.State != StateUnknown || syn.Message != "no-such-job" {
		t.Errorf("unexpected synthetic record %+v", syn)
	}
}

// Records are retained after terminal states; there is no eviction.
func TestStoreRetainsTerminalRecords(t *testing.T) {
	s := NewStore()

	s.SetTerminal("j1", StateCompleted, "upload complete")
	s.SetTerminal("j2", StateFailed, "busy")
	s.SetQueued("j3")

	if got := s.Len(); got != 3 {
		t.Fatalf("expected 3 retained records, got %d", got)
	}
	if _, ok := s.Get("j1"); !ok {
		t.Error("expected completed record to remain readable")
	}

	// A duplicate id does not grow the store.
	s.SetRunning("j3", StageRendering)
	if got := s.Len(); got != 3 {
		t.Errorf("expected overwrite to keep 3 records, got %d", got)
	}
}

func TestStoreConcurrentReads(t *testing.T) {
	s := NewStore()
	s.SetQueued("j1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Get("j1")
			}
		}()
	}
	for j := 0; j < 200; j++ {
		s.SetRunning("j1", StageRendering)
	}
	wg.Wait()
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateCompleted, StateFailed} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []State{StateQueued, StateRunning, StateUnknown} {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}
