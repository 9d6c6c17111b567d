package daemon

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"salesmind/internal/insight"
	"salesmind/internal/logging"
	"salesmind/internal/testsupport"
	"salesmind/internal/workspace"
)

type apiFixture struct {
	server *httptest.Server
	player *testsupport.StubPlayer
	hub    *logging.StreamHub
}

func newAPIFixture(t *testing.T, token string) apiFixture {
	t.Helper()
	fake := testsupport.NewFakeBackend(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(fake.URL()))
	ws, player := testsupport.NewWorkspace(t, fake)
	hub := logging.NewStreamHub(16)
	d, err := New(cfg, ws, logging.NewNop(), Options{Logs: hub})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := &apiServer{daemon: d, logger: logging.NewNop()}
	server := httptest.NewServer(srv.routes(token))
	t.Cleanup(server.Close)
	return apiFixture{server: server, player: player, hub: hub}
}

func (f apiFixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeView(t *testing.T, resp *http.Response) workspace.View {
	t.Helper()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var view workspace.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}

func TestAPIResearchFlow(t *testing.T) {
	f := newAPIFixture(t, "")

	if view := decodeView(t, f.do(t, http.MethodGet, "/api/view", "")); view.Mode != workspace.ModeSearch {
		t.Fatalf("expected search mode, got %s", view.Mode)
	}
	if resp := f.do(t, http.MethodGet, "/graph.svg", ""); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 before search, got %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodPost, "/api/search", `{"company_name":"  "}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank company, got %d", resp.StatusCode)
	}

	view := decodeView(t, f.do(t, http.MethodPost, "/api/search", `{"company_name":"Acme Corp"}`))
	if view.Mode != workspace.ModeResearch || len(view.Categories) != 4 {
		t.Fatalf("unexpected view after search: %+v", view)
	}

	resp := f.do(t, http.MethodGet, "/graph.svg", "")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("unexpected svg response %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	svg, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(svg), `data-id="news"`) {
		t.Fatal("expected news node in svg")
	}

	view = decodeView(t, f.do(t, http.MethodPost, "/api/nodes/news/click", ""))
	if view.Panel.Category != "news" || view.Panel.ActiveTab != insight.TabOpportunity {
		t.Fatalf("unexpected panel after click: %+v", view.Panel)
	}
	if diff := cmp.Diff([]string{"Acme is ready for a cloud consolidation play."}, f.player.Started()); diff != "" {
		t.Fatalf("narration mismatch (-want +got):\n%s", diff)
	}

	view = decodeView(t, f.do(t, http.MethodPost, "/api/panel/tab", `{"tab":"research"}`))
	if view.Panel.ActiveTab != insight.TabResearch {
		t.Fatalf("expected research tab, got %q", view.Panel.ActiveTab)
	}
	if resp := f.do(t, http.MethodPost, "/api/panel/tab", `{"tab":"summary"}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown tab, got %d", resp.StatusCode)
	}

	if view := decodeView(t, f.do(t, http.MethodPost, "/api/panel/close", "")); view.Panel.Visible {
		t.Fatal("expected panel hidden")
	}
	if view := decodeView(t, f.do(t, http.MethodPost, "/api/back", "")); view.Mode != workspace.ModeSearch || view.Company != "" {
		t.Fatalf("expected search mode after back, got %+v", view)
	}
}

func TestAPINodeClickErrors(t *testing.T) {
	f := newAPIFixture(t, "")
	if resp := f.do(t, http.MethodPost, "/api/nodes/news/click", ""); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 before search, got %d", resp.StatusCode)
	}
	decodeView(t, f.do(t, http.MethodPost, "/api/search", `{"company_name":"Acme Corp"}`))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/nodes/center/click", http.StatusNotFound},
		{http.MethodPost, "/api/nodes/weather/click", http.StatusNotFound},
		{http.MethodPost, "/api/nodes/news", http.StatusNotFound},
		{http.MethodGet, "/api/nodes/news/click", http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		if resp := f.do(t, tc.method, tc.path, ""); resp.StatusCode != tc.want {
			t.Errorf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, resp.StatusCode)
		}
	}
}

func TestAPIAuth(t *testing.T) {
	f := newAPIFixture(t, "secret")
	if resp := f.do(t, http.MethodGet, "/api/view", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/api/view", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, f.server.URL+"/api/view", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	decodeView(t, resp)
	resp.Body.Close()
}

func TestAPILogs(t *testing.T) {
	f := newAPIFixture(t, "")
	f.hub.Publish(logging.LogEvent{Level: "INFO", Message: "search started", Component: "workspace", Company: "Acme Corp"})
	f.hub.Publish(logging.LogEvent{Level: "INFO", Message: "insight requested", Component: "insight", Company: "Acme Corp"})
	f.hub.Publish(logging.LogEvent{Level: "WARN", Message: "search failed", Component: "workspace", Company: "Globex"})

	resp := f.do(t, http.MethodGet, "/api/logs?component=workspace&company=acme%20corp", "")
	var body LogStreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if body.Next != 3 {
		t.Fatalf("expected cursor 3, got %d", body.Next)
	}
	if len(body.Events) != 1 || body.Events[0].Message != "search started" {
		t.Fatalf("unexpected filtered events: %+v", body.Events)
	}

	resp = f.do(t, http.MethodGet, "/api/logs?since=2", "")
	body = LogStreamResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if len(body.Events) != 1 || body.Events[0].Sequence != 3 {
		t.Fatalf("expected only event 3, got %+v", body.Events)
	}
}
