package testsupport

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"salesmind/internal/services/backend"
)

// AcmeSearchJSON is a search response with four categories in a fixed order.
const AcmeSearchJSON = `{
  "company_name": "Acme Corp",
  "ai_analysis": "Acme is consolidating vendors.",
  "categories": {
    "overview": {"query": "Acme Corp overview", "insights": [{"title": "Founded 1999", "snippet": "Industrial supplier.", "link": "https://example.com/a"}]},
    "news": {"query": "Acme Corp news", "insights": [{"title": "Cloud deal", "snippet": "Signed a cloud contract."}, {"title": "New CFO", "snippet": "Finance leadership change."}]},
    "financials": {"insights": [{"title": "Revenue up", "snippet": "Up 12% year over year."}]},
    "hiring": {"insights": []}
  }
}`

// FakeBackend is an in-process research backend. Fields may be changed
// through Update while the server runs.
type FakeBackend struct {
	SearchBody   string
	SearchStatus int
	// PanelInsight empty means the response omits the insight field.
	PanelInsight string
	PanelStatus  int
	Narration    string
	Audio        []byte
	History      []backend.HistoryEntry
	Keys         map[string]string
	Status       backend.Status

	mu      sync.Mutex
	calls   []string
	deleted []string
	saved   []map[string]string
	server  *httptest.Server
	t       testing.TB
}

// NewFakeBackend starts a fake backend that answers the Acme scenario.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		SearchBody:   AcmeSearchJSON,
		SearchStatus: http.StatusOK,
		PanelInsight: "Acme could cut costs by consolidating cloud vendors.",
		PanelStatus:  http.StatusOK,
		Narration:    "Acme is ready for a cloud consolidation play.",
		Audio:        []byte("ID3-fake-mp3"),
		History: []backend.HistoryEntry{
			{CompanyName: "Acme Corp", Timestamp: "2026-03-01T10:00:00"},
			{CompanyName: "acme corp", Timestamp: "2026-02-28T10:00:00"},
			{CompanyName: "Globex", Timestamp: "2026-02-27T10:00:00"},
		},
		Keys:   map[string]string{"serper": "sk-12345...wxyz", "cartesia": "****"},
		Status: backend.Status{Database: true, TTS: backend.TTSStatus{Available: true}},
		t:      t,
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

// URL is the base URL of the fake.
func (f *FakeBackend) URL() string {
	return f.server.URL
}

// Update mutates the fake's responses under its lock.
func (f *FakeBackend) Update(fn func(*FakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// Calls returns "METHOD /path" for every request served so far.
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts requests whose path starts with prefix.
func (f *FakeBackend) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if _, path, ok := strings.Cut(call, " "); ok && strings.HasPrefix(path, prefix) {
			n++
		}
	}
	return n
}

// Deleted lists companies removed through DELETE /api/history.
func (f *FakeBackend) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// SavedKeys lists every POST /api/keys payload.
func (f *FakeBackend) SavedKeys() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.saved...)
}

func (f *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.EscapedPath())
	body, _ := io.ReadAll(r.Body)

	switch {
	case r.URL.Path == "/api/search":
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.SearchStatus)
		_, _ = w.Write([]byte(f.SearchBody))
	case strings.HasPrefix(r.URL.Path, "/api/panel-insight/"):
		if f.PanelStatus != http.StatusOK {
			f.writeJSON(w, f.PanelStatus, map[string]string{"error": "insight model unavailable"})
			return
		}
		if f.PanelInsight == "" {
			f.writeJSON(w, http.StatusOK, map[string]string{})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]string{"insight": f.PanelInsight})
	case r.URL.Path == "/api/ultra-short-tts":
		if f.Narration == "" {
			f.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "narration failed"})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]string{"tts_text": f.Narration})
	case r.URL.Path == "/api/tts":
		if len(f.Audio) == 0 {
			f.writeJSON(w, http.StatusOK, map[string]string{"error": "credits exhausted"})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]string{"audio": base64.StdEncoding.EncodeToString(f.Audio)})
	case r.URL.Path == "/api/history" && r.Method == http.MethodGet:
		f.writeJSON(w, http.StatusOK, f.History)
	case strings.HasPrefix(r.URL.Path, "/api/history/") && r.Method == http.MethodDelete:
		name, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/api/history/"))
		if err != nil {
			f.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad name"})
			return
		}
		f.deleted = append(f.deleted, name)
		f.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case r.URL.Path == "/api/keys" && r.Method == http.MethodGet:
		f.writeJSON(w, http.StatusOK, f.Keys)
	case r.URL.Path == "/api/keys" && r.Method == http.MethodPost:
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			f.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad payload"})
			return
		}
		f.saved = append(f.saved, payload)
		f.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "API keys updated successfully"})
	case r.URL.Path == "/api/status":
		f.writeJSON(w, http.StatusOK, f.Status)
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeBackend) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		f.t.Errorf("encode fake backend response: %v", err)
	}
}
