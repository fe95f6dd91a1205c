package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"redub/internal/config"
	"redub/internal/logging"
	"redub/internal/queue"
	"redub/internal/session"
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	upgrader websocket.Upgrader

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		token:  cfg.Paths.APIToken,
		logger: logger,
		daemon: d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(srv.token, srv.handleStatus))
	mux.HandleFunc("/api/queue", authMiddleware(srv.token, srv.handleQueue))
	mux.HandleFunc("/api/queue/", authMiddleware(srv.token, srv.handleQueueEntry))
	mux.HandleFunc("/api/session", authMiddleware(srv.token, srv.handleSession))
	mux.HandleFunc("/api/events", authMiddleware(srv.token, srv.handleEvents))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
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

// addr returns the bound listen address, empty before start.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

type statusPayload struct {
	Running      bool              `json:"running"`
	PID          int               `json:"pid"`
	QueueDBPath  string            `json:"queueDbPath"`
	LockFilePath string            `json:"lockFilePath"`
	Queue        queueHealth       `json:"queue"`
	Checks       []preflightResult `json:"checks"`
}

type queueHealth struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Rendering int `json:"rendering"`
	Done      int `json:"done"`
	Failed    int `json:"failed"`
	Canceled  int `json:"canceled"`
}

type preflightResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

type queueEntry struct {
	ID              int64   `json:"id"`
	Kind            string  `json:"kind"`
	Label           string  `json:"label"`
	Status          string  `json:"status"`
	ProgressPercent float64 `json:"progressPercent"`
	ProgressMessage string  `json:"progressMessage,omitempty"`
	ResultURL       string  `json:"resultUrl,omitempty"`
	ErrorMessage    string  `json:"errorMessage,omitempty"`
	RequestID       string  `json:"requestId,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	ElapsedSeconds  float64 `json:"elapsedSeconds"`
}

func fromQueueJob(job *queue.Job) queueEntry {
	return queueEntry{
		ID:              job.ID,
		Kind:            string(job.Kind),
		Label:           job.Label,
		Status:          string(job.Status),
		ProgressPercent: job.ProgressPercent,
		ProgressMessage: job.ProgressMessage,
		ResultURL:       job.ResultURL,
		ErrorMessage:    job.ErrorMessage,
		RequestID:       job.RequestID,
		CreatedAt:       job.CreatedAt.UTC().Format(time.RFC3339),
		ElapsedSeconds:  job.Elapsed(time.Now()).Seconds(),
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	checks := make([]preflightResult, len(status.Checks))
	for i, check := range status.Checks {
		checks[i] = preflightResult{Name: check.Name, Passed: check.Passed, Detail: check.Detail}
	}
	s.writeJSON(w, http.StatusOK, statusPayload{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		Queue: queueHealth{
			Total:     status.Queue.Total,
			Pending:   status.Queue.Pending,
			Rendering: status.Queue.Rendering,
			Done:      status.Queue.Done,
			Failed:    status.Queue.Failed,
			Canceled:  status.Queue.Canceled,
		},
		Checks: checks,
	})
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		if parsed, ok := queue.ParseStatus(value); ok {
			statuses = append(statuses, parsed)
		}
	}
	jobs, err := s.daemon.ListQueue(r.Context(), statuses)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	entries := make([]queueEntry, 0, len(jobs))
	for _, job := range jobs {
		entries = append(entries, fromQueueJob(job))
	}
	s.writeJSON(w, http.StatusOK, map[string][]queueEntry{"entries": entries})
}

func (s *apiServer) handleQueueEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	if idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "queue entry not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid queue entry id")
		return
	}
	job, err := s.daemon.GetQueueJob(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "queue entry not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]queueEntry{"entry": fromQueueJob(job)})
}

func (s *apiServer) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	state := s.daemon.Engine().Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"state":   state,
		"lastSeq": s.daemon.Engine().Hub().LastSeq(),
	})
}

// handleEvents upgrades to a websocket and streams session events. A since
// query parameter replays buffered events before live delivery begins.
func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	hub := s.daemon.Engine().Hub()
	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)

	id, ch := hub.Subscribe(64)
	defer hub.Unsubscribe(id)

	for _, ev := range hub.Since(since) {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
		since = ev.Seq
	}

	// Reader goroutine surfaces client disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Seq <= since {
				continue
			}
			if err := s.writeEvent(conn, ev); err != nil {
				return
			}
			since = ev.Seq
		}
	}
}

func (s *apiServer) writeEvent(conn *websocket.Conn, ev session.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(ev)
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
		return logging.NewComponentLogger(s.logger, "api-server")
	}
	return logging.NewNop()
}
