package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"salesmind/internal/config"
	"salesmind/internal/insight"
	"salesmind/internal/logging"
	"salesmind/internal/workspace"
)

const maxRequestBody = 64 << 10

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

// LogStreamResponse is the body of GET /api/logs.
type LogStreamResponse struct {
	Events []logging.LogEvent `json:"events"`
	Next   uint64             `json:"next"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{bind: bind, logger: logger, daemon: d}
	srv.server = &http.Server{
		Handler:           srv.routes(strings.TrimSpace(cfg.Paths.APIToken)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, authMiddleware(token, h))
	}
	handle("/api/status", s.handleStatus)
	handle("/api/view", s.handleView)
	handle("/api/search", s.handleSearch)
	handle("/api/graph", s.handleGraph)
	handle("/graph.svg", s.handleGraphSVG)
	handle("/api/nodes/", s.handleNodeClick)
	handle("/api/panel/close", s.handlePanelClose)
	handle("/api/panel/tab", s.handlePanelTab)
	handle("/api/back", s.handleBack)
	handle("/api/logs", s.handleLogs)
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleView(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Workspace().View())
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		CompanyName string `json:"company_name"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	ws := s.daemon.Workspace()
	if err := ws.Search(r.Context(), req.CompanyName); err != nil {
		s.writeWorkspaceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ws.View())
}

func (s *apiServer) handleGraph(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	snap, err := s.daemon.Workspace().Graph()
	if err != nil {
		s.writeWorkspaceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *apiServer) handleGraphSVG(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	var buf bytes.Buffer
	if err := s.daemon.Workspace().WriteSVG(&buf); err != nil {
		s.writeWorkspaceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleNodeClick serves POST /api/nodes/{id}/click.
func (s *apiServer) handleNodeClick(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/nodes/")
	id, ok := strings.CutSuffix(rest, "/click")
	if !ok || id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	ws := s.daemon.Workspace()
	if err := ws.Click(r.Context(), id); err != nil {
		s.writeWorkspaceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ws.View())
}

func (s *apiServer) handlePanelClose(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	ws := s.daemon.Workspace()
	ws.ClosePanel()
	s.writeJSON(w, http.StatusOK, ws.View())
}

func (s *apiServer) handlePanelTab(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Tab string `json:"tab"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	ws := s.daemon.Workspace()
	if err := ws.SwitchTab(insight.Tab(strings.TrimSpace(req.Tab))); err != nil {
		s.writeWorkspaceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ws.View())
}

func (s *apiServer) handleBack(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	ws := s.daemon.Workspace()
	ws.Back()
	s.writeJSON(w, http.StatusOK, ws.View())
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	hub := s.daemon.LogStream()
	if hub == nil {
		s.writeJSON(w, http.StatusOK, LogStreamResponse{})
		return
	}

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 200
	}
	wait := truthy(query.Get("wait")) || truthy(query.Get("follow"))
	component := strings.TrimSpace(query.Get("component"))
	company := strings.TrimSpace(query.Get("company"))

	var (
		events []logging.LogEvent
		next   uint64
	)
	if truthy(query.Get("tail")) && since == 0 && !wait {
		events, next = hub.Tail(limit)
	} else {
		var err error
		events, next, err = hub.Fetch(r.Context(), since, limit, wait)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	filtered := make([]logging.LogEvent, 0, len(events))
	for _, evt := range events {
		if component != "" && !strings.EqualFold(component, evt.Component) {
			continue
		}
		if company != "" && !strings.EqualFold(company, evt.Company) {
			continue
		}
		filtered = append(filtered, evt)
	}
	s.writeJSON(w, http.StatusOK, LogStreamResponse{Events: filtered, Next: next})
}

func truthy(value string) bool {
	return value == "1" || strings.EqualFold(value, "true")
}

func (s *apiServer) allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeWorkspaceError maps workspace sentinels to HTTP statuses.
func (s *apiServer) writeWorkspaceError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, workspace.ErrEmptyCompany), errors.Is(err, insight.ErrUnknownTab):
		status = http.StatusBadRequest
	case errors.Is(err, workspace.ErrUnknownNode):
		status = http.StatusNotFound
	case errors.Is(err, workspace.ErrNoResearch), errors.Is(err, insight.ErrNoCondensedTab):
		status = http.StatusConflict
	case errors.Is(err, workspace.ErrSuperseded), errors.Is(err, context.Canceled):
		status = http.StatusConflict
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
