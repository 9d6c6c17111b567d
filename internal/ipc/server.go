package ipc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"salesmind/internal/daemon"
	"salesmind/internal/insight"
	"salesmind/internal/logging"
)

const defaultLogWait = 5 * time.Second

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, svc); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
		conns:     make(map[net.Conn]struct{}),
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"),
				)
				continue
			}
			s.track(conn, true)
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer s.track(c, false)
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
}

// Close stops the server, drops open client connections and removes the
// socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"),
		)
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.daemon.Status(s.ctx)
	return nil
}

func (s *service) Search(req SearchRequest, resp *ViewResponse) error {
	ws := s.daemon.Workspace()
	s.logger.Debug("search requested", logging.Company(req.CompanyName))
	if err := ws.Search(s.ctx, req.CompanyName); err != nil {
		resp.Error = err.Error()
	}
	resp.View = ws.View()
	return nil
}

func (s *service) Click(req ClickRequest, resp *ViewResponse) error {
	ws := s.daemon.Workspace()
	if err := ws.Click(s.ctx, req.ID); err != nil {
		resp.Error = err.Error()
	}
	resp.View = ws.View()
	return nil
}

func (s *service) SwitchTab(req SwitchTabRequest, resp *ViewResponse) error {
	ws := s.daemon.Workspace()
	if err := ws.SwitchTab(insight.Tab(strings.TrimSpace(req.Tab))); err != nil {
		resp.Error = err.Error()
	}
	resp.View = ws.View()
	return nil
}

func (s *service) ClosePanel(_ ClosePanelRequest, resp *ViewResponse) error {
	ws := s.daemon.Workspace()
	ws.ClosePanel()
	resp.View = ws.View()
	return nil
}

func (s *service) Back(_ BackRequest, resp *ViewResponse) error {
	ws := s.daemon.Workspace()
	ws.Back()
	resp.View = ws.View()
	return nil
}

func (s *service) Resize(req ResizeRequest, resp *ViewResponse) error {
	ws := s.daemon.Workspace()
	if err := ws.Resize(req.Width, req.Height); err != nil {
		return err
	}
	resp.View = ws.View()
	return nil
}

func (s *service) View(_ ViewRequest, resp *ViewResponse) error {
	resp.View = s.daemon.Workspace().View()
	return nil
}

func (s *service) Graph(req GraphRequest, resp *GraphResponse) error {
	ws := s.daemon.Workspace()
	scene, err := ws.Graph()
	if err != nil {
		return err
	}
	resp.Scene = scene
	if req.SVG {
		var buf bytes.Buffer
		if err := ws.WriteSVG(&buf); err != nil {
			return err
		}
		resp.SVG = buf.String()
	}
	return nil
}

func (s *service) History(_ HistoryRequest, resp *HistoryResponse) error {
	items, err := s.daemon.Workspace().History(s.ctx)
	if err != nil {
		return err
	}
	resp.Items = items
	return nil
}

func (s *service) DeleteHistory(req DeleteHistoryRequest, resp *DeleteHistoryResponse) error {
	if err := s.daemon.Workspace().DeleteHistory(s.ctx, req.CompanyName); err != nil {
		return err
	}
	resp.Deleted = true
	s.logger.Info("history entry deleted",
		logging.String(logging.FieldEventType, "history_delete"),
		logging.Company(req.CompanyName),
	)
	return nil
}

func (s *service) Keys(_ KeysRequest, resp *KeysResponse) error {
	keys, err := s.daemon.Workspace().Keys(s.ctx)
	if err != nil {
		return err
	}
	resp.Keys = keys
	return nil
}

func (s *service) SaveKeys(req SaveKeysRequest, resp *SaveKeysResponse) error {
	if err := s.daemon.Workspace().SaveKeys(s.ctx, req.Keys); err != nil {
		return err
	}
	resp.Saved = true
	s.logger.Info("api keys updated",
		logging.String(logging.FieldEventType, "keys_update"),
		logging.Int("key_count", len(req.Keys)),
	)
	return nil
}

func (s *service) Journal(req JournalRequest, resp *JournalResponse) error {
	entries, stats, err := s.daemon.Journal(s.ctx, req.Company, req.Limit)
	if err != nil {
		return err
	}
	resp.Entries = entries
	resp.Stats = stats
	return nil
}

func (s *service) Logs(req LogsRequest, resp *LogsResponse) error {
	hub := s.daemon.LogStream()
	if hub == nil {
		resp.Next = req.Since
		return nil
	}
	ctx := s.ctx
	if req.Follow {
		wait := time.Duration(req.WaitMillis) * time.Millisecond
		if wait <= 0 {
			wait = defaultLogWait
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}
	events, next, err := hub.Fetch(ctx, req.Since, req.Limit, req.Follow)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	resp.Events = events
	resp.Next = next
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		return err
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}
