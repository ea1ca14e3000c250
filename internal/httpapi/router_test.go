package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cruxcast/internal/job"
	"cruxcast/internal/pkg/logger"
)

type fakeRunner struct {
	busy     bool
	enqueued int
}

func (f *fakeRunner) Enqueue(p *job.Payload) { f.enqueued++ }
func (f *fakeRunner) Busy() bool             { return f.busy }

func newTestServer(t *testing.T, token string) (*httptest.Server, *fakeRunner, *job.Store) {
	t.Helper()

	var buf bytes.Buffer
	runner := &fakeRunner{}
	store := job.NewStore()

	srv := httptest.NewServer(NewRouter(Deps{
		Runner:    runner,
		Store:     store,
		AuthToken: token,
		Log:       logger.New(logger.Config{Level: "debug", Format: "json", Output: &buf}),
	}))
	t.Cleanup(srv.Close)
	return srv, runner, store
}

func get(t *testing.T, url, token string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	return res, body
}

func TestRouterEndpoints(t *testing.T) {
	srv, runner, store := newTestServer(t, "")
	store.SetQueued("j1")

	t.Run("health", func(t *testing.T) {
		res, body := get(t, srv.URL+"/health", "")
		if res.StatusCode != http.StatusOK || !strings.Contains(string(body), "idle") {
			t.Errorf("unexpected health response %d %s", res.StatusCode, body)
		}
	})

	t.Run("health busy", func(t *testing.T) {
		runner.busy = true
		defer func() { runner.busy = false }()
		_, body := get(t, srv.URL+"/health", "")
		if !strings.Contains(string(body), "busy") {
			t.Errorf("expected busy, got %s", body)
		}
	})

	t.Run("status", func(t *testing.T) {
		res, body := get(t, srv.URL+"/status?jobId=j1", "")
		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", res.StatusCode)
		}
		var st job.Status
		if err := json.Unmarshal(body, &st); err != nil {
			t.Fatal(err)
		}
		if st.State != job.StateQueued {
			t.Errorf("unexpected status %+v", st)
		}
	})

	t.Run("render accepted", func(t *testing.T) {
		res, err := http.Post(srv.URL+"/render", "application/json",
			strings.NewReader(`{"jobId":"j2","route":[{"id":"h1"}]}`))
		if err != nil {
			t.Fatal(err)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", res.StatusCode)
		}
		if runner.enqueued != 1 {
			t.Error("expected payload handed to runner")
		}
	})

	t.Run("case insensitive path", func(t *testing.T) {
		res, _ := get(t, srv.URL+"/HeAlTh/", "")
		if res.StatusCode != http.StatusOK {
			t.Errorf("expected path normalization to match, got %d", res.StatusCode)
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		res, body := get(t, srv.URL+"/nope", "")
		if res.StatusCode != http.StatusNotFound || !strings.Contains(string(body), "not-found") {
			t.Errorf("expected JSON 404, got %d %s", res.StatusCode, body)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		res, err := http.Post(srv.URL+"/health", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 for POST /health, got %d", res.StatusCode)
		}
	})
}

func TestRouterAuth(t *testing.T) {
	srv, _, _ := newTestServer(t, "sekrit")

	t.Run("missing token", func(t *testing.T) {
		res, body := get(t, srv.URL+"/health", "")
		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", res.StatusCode)
		}
		if !strings.Contains(string(body), "unauthorized") {
			t.Errorf("expected unauthorized body, got %s", body)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		res, _ := get(t, srv.URL+"/health", "wrong")
		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", res.StatusCode)
		}
	})

	t.Run("correct token", func(t *testing.T) {
		res, _ := get(t, srv.URL+"/health", "sekrit")
		if res.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", res.StatusCode)
		}
	})

	t.Run("render requires token too", func(t *testing.T) {
		res, err := http.Post(srv.URL+"/render", "application/json",
			strings.NewReader(`{"jobId":"j1","route":[{"id":"h1"}]}`))
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", res.StatusCode)
		}
	})
}
