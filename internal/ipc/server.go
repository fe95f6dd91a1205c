package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"redub/internal/daemon"
	"redub/internal/editor"
	"redub/internal/logging"
	"redub/internal/queue"
	"redub/internal/services/speech"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
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

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Redub", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
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
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun redub stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return logging.NewComponentLogger(s.logger, "ipc")
}

func fromQueueJob(job *queue.Job) QueueEntry {
	return QueueEntry{
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

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.QueueDBPath = status.QueueDBPath
	resp.LockPath = status.LockFilePath
	resp.QueueStats = map[string]int{
		string(queue.StatusPending):   status.Queue.Pending,
		string(queue.StatusRendering): status.Queue.Rendering,
		string(queue.StatusDone):      status.Queue.Done,
		string(queue.StatusFailed):    status.Queue.Failed,
		string(queue.StatusCanceled):  status.Queue.Canceled,
	}
	resp.Checks = make([]PreflightResult, 0, len(status.Checks))
	for _, check := range status.Checks {
		resp.Checks = append(resp.Checks, PreflightResult{
			Name:   check.Name,
			Passed: check.Passed,
			Detail: check.Detail,
		})
	}
	resp.SessionState = status.Session
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		if parsed, ok := queue.ParseStatus(status); ok {
			statuses = append(statuses, parsed)
		}
	}
	jobs, err := s.daemon.ListQueue(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Entries = make([]QueueEntry, 0, len(jobs))
	for _, job := range jobs {
		resp.Entries = append(resp.Entries, fromQueueJob(job))
	}
	return nil
}

func (s *service) QueueDescribe(req QueueDescribeRequest, resp *QueueDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid queue entry id %d", req.ID)
	}
	job, err := s.daemon.GetQueueJob(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("queue entry %d not found", req.ID)
	}
	resp.Entry = fromQueueJob(job)
	return nil
}

func (s *service) QueueClear(req QueueClearRequest, resp *QueueClearResponse) error {
	s.log().Debug("queue clear requested", logging.Bool("finished_only", req.FinishedOnly))
	var (
		removed int64
		err     error
	)
	if req.FinishedOnly {
		removed, err = s.daemon.ClearFinished(s.ctx)
	} else {
		removed, err = s.daemon.ClearQueue(s.ctx)
	}
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("queue cleared",
		logging.String(logging.FieldEventType, "queue_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) Import(req ImportRequest, resp *StateResponse) error {
	err := s.daemon.Engine().Import(s.ctx, speech.Source{URL: req.Source, FilePath: req.FilePath})
	resp.State = s.daemon.Engine().Snapshot()
	return err
}

func (s *service) AlignFull(_ AlignFullRequest, resp *StateResponse) error {
	err := s.daemon.Engine().AlignFull(s.ctx)
	resp.State = s.daemon.Engine().Snapshot()
	return err
}

func (s *service) AlignRegion(req AlignRegionRequest, resp *StateResponse) error {
	var sel editor.Selection
	if req.End > req.Start {
		sel = editor.SelectionOf(req.Start, req.End)
	}
	err := s.daemon.Engine().AlignRegion(s.ctx, sel, req.Margin)
	resp.State = s.daemon.Engine().Snapshot()
	return err
}

func (s *service) SetStep(req SetStepRequest, resp *StateResponse) error {
	step, ok := editor.ParseStep(req.Step)
	if !ok {
		return fmt.Errorf("unknown step %q", req.Step)
	}
	resp.State = s.daemon.Engine().Dispatch(editor.SetStep{Step: step})
	return nil
}

func (s *service) SetSelection(req SetSelectionRequest, resp *StateResponse) error {
	resp.State = s.daemon.Engine().Dispatch(editor.SetSelection{
		Selection: editor.Selection{Start: req.Start, End: req.End},
	})
	return nil
}

func (s *service) SetReplaceText(req SetReplaceTextRequest, resp *StateResponse) error {
	resp.State = s.daemon.Engine().Dispatch(editor.SetReplaceText{Text: req.Text})
	return nil
}

func (s *service) SetVoice(req SetVoiceRequest, resp *StateResponse) error {
	engine := s.daemon.Engine()
	if req.Mode != "" {
		mode, ok := editor.ParseVoiceMode(req.Mode)
		if !ok {
			return fmt.Errorf("unknown voice mode %q", req.Mode)
		}
		engine.Dispatch(editor.SetVoiceMode{Mode: mode})
	}
	if req.VoiceID != "" {
		engine.Dispatch(editor.SetVoiceID{ID: req.VoiceID})
	}
	if req.FavoriteID != "" {
		engine.Dispatch(editor.SetFavoriteVoice{ID: req.FavoriteID})
	}
	resp.State = engine.Snapshot()
	return nil
}

func (s *service) PatchTiming(req PatchTimingRequest, resp *StateResponse) error {
	resp.State = s.daemon.Engine().Dispatch(editor.PatchTiming{
		MarginSec:     req.MarginSec,
		FadeMs:        req.FadeMs,
		TrimEnable:    req.TrimEnable,
		TrimTopDb:     req.TrimTopDb,
		TrimPrepadMs:  req.TrimPrepadMs,
		TrimPostpadMs: req.TrimPostpadMs,
	})
	return nil
}

func (s *service) ReplacePreview(_ ReplacePreviewRequest, resp *StateResponse) error {
	err := s.daemon.Engine().ReplacePreview(s.ctx)
	resp.State = s.daemon.Engine().Snapshot()
	return err
}

func (s *service) Apply(_ ApplyRequest, resp *StateResponse) error {
	err := s.daemon.Engine().Apply(s.ctx)
	resp.State = s.daemon.Engine().Snapshot()
	return err
}

func (s *service) Suggest(_ SuggestRequest, resp *SuggestResponse) error {
	step, ok := s.daemon.Engine().Suggest()
	resp.Step = string(step)
	resp.Available = ok
	return nil
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	hub := s.daemon.Engine().Hub()
	resp.Events = hub.Since(req.Since)
	resp.LastSeq = hub.LastSeq()
	return nil
}

func (s *service) Voices(_ VoicesRequest, resp *VoicesResponse) error {
	voices, err := s.daemon.Engine().Voices(s.ctx)
	if err != nil {
		return err
	}
	resp.Voices = voices
	return nil
}

func (s *service) Favorites(_ FavoritesRequest, resp *FavoritesResponse) error {
	favorites, err := s.daemon.Engine().Favorites(s.ctx)
	if err != nil {
		return err
	}
	resp.Favorites = favorites
	return nil
}
