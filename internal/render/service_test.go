package render

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeService records calls per route and answers with scripted handlers.
type fakeService struct {
	t *testing.T

	mu      sync.Mutex
	renders []renderCall
	polls   []time.Time
	pings   int

	renderStatus func(n int) int
	pollReply    func(n int, w http.ResponseWriter)
	pingReply    func(w http.ResponseWriter)
}

type renderCall struct {
	at      time.Time
	header  http.Header
	payload map[string]any
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	f := &fakeService{t: t}
	mux := http.NewServeMux()
	mux.HandleFunc("/render", f.handleRender)
	mux.HandleFunc("/image/stream/", f.handlePoll)
	mux.HandleFunc("/ping", f.handlePing)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return f, ts
}

func (f *fakeService) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		f.t.Errorf("decode render payload: %v", err)
	}
	f.mu.Lock()
	f.renders = append(f.renders, renderCall{at: time.Now(), header: r.Header.Clone(), payload: payload})
	n := len(f.renders)
	f.mu.Unlock()

	status := http.StatusOK
	if f.renderStatus != nil {
		status = f.renderStatus(n)
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"status":"queued"}`))
}

func (f *fakeService) handlePoll(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.polls = append(f.polls, time.Now())
	n := len(f.polls)
	f.mu.Unlock()
	if f.pollReply == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	f.pollReply(n, w)
}

func (f *fakeService) handlePing(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.pings++
	f.mu.Unlock()
	if f.pingReply == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	f.pingReply(w)
}

func (f *fakeService) renderCalls() []renderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]renderCall(nil), f.renders...)
}

func (f *fakeService) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.polls)
}

func (f *fakeService) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func imageReply(data []byte) map[string]any {
	return map[string]any{
		"output": []any{
			map[string]any{"data": "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)},
		},
	}
}

func zeroSchedule(attempts int) Schedule {
	return func(time.Duration) []time.Duration {
		return make([]time.Duration, attempts)
	}
}

func newTestClient(t *testing.T, baseURL string, opts Options) *Client {
	t.Helper()
	opts.BaseURL = baseURL
	client, err := NewClient(opts)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}
