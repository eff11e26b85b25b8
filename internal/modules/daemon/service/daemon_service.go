package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lockin/internal/modules/daemon/dto"
	daemonout "lockin/internal/modules/daemon/port/out"
	enforcementin "lockin/internal/modules/enforcement/port/in"
	listsin "lockin/internal/modules/lists/port/in"
	navigationin "lockin/internal/modules/navigation/port/in"
	relevancein "lockin/internal/modules/relevance/port/in"
	sessionin "lockin/internal/modules/session/port/in"
	"lockin/internal/platform/clock"
	apperrors "lockin/internal/platform/errors"
)

const (
	daemonStartTimeout  = 5 * time.Second
	defaultLogTailLines = 200
	stopGrace           = 100 * time.Millisecond
)

type Deps struct {
	Sessions    sessionin.Usecase
	Lists       listsin.Usecase
	Enforcement enforcementin.Usecase
	Navigation  navigationin.Usecase
	Relevance   relevancein.Usecase

	Store     daemonout.DaemonStore
	IPCServer daemonout.IPCServer
	IPCClient daemonout.IPCClient
	Gateway   daemonout.Gateway
	Workers   []daemonout.Worker

	// HTTPAddr is the loopback gateway address; empty disables it.
	HTTPAddr string
	// RunArgs re-executes this binary as the foreground daemon.
	RunArgs []string
	Clock   clock.Clock
	Logger  *zap.Logger
}

type runtimeState struct {
	cancel    context.CancelFunc
	startedAt time.Time
}

type DaemonService struct {
	sessions    sessionin.Usecase
	lists       listsin.Usecase
	enforcement enforcementin.Usecase
	navigation  navigationin.Usecase
	relevance   relevancein.Usecase

	daemon    daemonout.DaemonStore
	ipcServer daemonout.IPCServer
	ipcClient daemonout.IPCClient
	gateway   daemonout.Gateway
	workers   []daemonout.Worker
	httpAddr  string
	runArgs   []string
	clock     clock.Clock
	logger    *zap.Logger

	mu      sync.RWMutex
	runtime *runtimeState
}

func NewDaemonService(deps Deps) *DaemonService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	return &DaemonService{
		sessions:    deps.Sessions,
		lists:       deps.Lists,
		enforcement: deps.Enforcement,
		navigation:  deps.Navigation,
		relevance:   deps.Relevance,
		daemon:      deps.Store,
		ipcServer:   deps.IPCServer,
		ipcClient:   deps.IPCClient,
		gateway:     deps.Gateway,
		workers:     deps.Workers,
		httpAddr:    deps.HTTPAddr,
		runArgs:     deps.RunArgs,
		clock:       deps.Clock,
		logger:      deps.Logger.Named("daemon"),
	}
}

// RunDaemon serves the message API in the foreground until ctx ends or a
// STOP message arrives.
func (s *DaemonService) RunDaemon(ctx context.Context) error {
	if err := s.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	if socketReachable(s.daemon.SocketPath()) {
		return fmt.Errorf("%w: another daemon is serving %s", apperrors.ErrDaemonStartFailed, s.daemon.SocketPath())
	}
	if s.ipcServer == nil {
		return fmt.Errorf("ipc server is not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.runtime = &runtimeState{cancel: cancel, startedAt: s.clock.Now()}
	s.mu.Unlock()

	if err := s.sessions.Recover(runCtx); err != nil {
		s.logger.Warn("session recovery failed", zap.Error(err))
	}
	if err := s.daemon.WritePID(ctx, os.Getpid()); err != nil {
		s.cleanupRuntime(context.Background())
		return err
	}

	serveErr := make(chan error, 2)
	go func() {
		serveErr <- s.ipcServer.Serve(runCtx, s.daemon.SocketPath(), s)
	}()
	if s.httpAddr != "" && s.gateway != nil {
		go func() {
			serveErr <- s.gateway.Serve(runCtx, s.httpAddr, s)
		}()
	}

	var workers sync.WaitGroup
	for _, w := range s.workers {
		workers.Add(1)
		go func(w daemonout.Worker) {
			defer workers.Done()
			if err := w.Run(runCtx); err != nil && runCtx.Err() == nil {
				s.logger.Error("daemon worker stopped", zap.Error(err))
			}
		}(w)
	}
	s.logger.Info("daemon started",
		zap.Int("pid", os.Getpid()),
		zap.String("socket", s.daemon.SocketPath()),
		zap.String("http", s.httpAddr),
	)

	var runErr error
	select {
	case <-runCtx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	}
	cancel()
	workers.Wait()
	s.cleanupRuntime(context.Background())
	if runErr != nil {
		s.logger.Error("daemon stopped", zap.Error(runErr))
	} else {
		s.logger.Info("daemon stopped")
	}
	return runErr
}

func (s *DaemonService) StartDaemon(ctx context.Context) error {
	if err := s.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	status, err := s.DaemonStatus(ctx)
	if err == nil && status.Running {
		if socketReachable(s.daemon.SocketPath()) {
			return nil
		}
		return fmt.Errorf("%w: daemon process is alive but socket is unavailable", apperrors.ErrDaemonStartFailed)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := s.daemon.ClearSocket(ctx); err != nil {
		return err
	}
	logFile, err := s.daemon.OpenLog()
	if err != nil {
		return err
	}
	defer logFile.Close()

	cmd := exec.Command(execPath, s.runArgs...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if err := s.daemon.WritePID(ctx, cmd.Process.Pid); err != nil {
		return err
	}
	_ = cmd.Process.Release()

	if err := waitForSocket(s.daemon.SocketPath(), daemonStartTimeout); err != nil {
		_ = s.daemon.ClearPID(ctx)
		return fmt.Errorf("%w: %v", apperrors.ErrDaemonStartFailed, err)
	}
	return nil
}

func (s *DaemonService) StopDaemon(ctx context.Context) error {
	s.mu.RLock()
	rt := s.runtime
	s.mu.RUnlock()
	if rt != nil {
		rt.cancel()
		return nil
	}

	if s.ipcClient != nil && socketReachable(s.daemon.SocketPath()) {
		msg := dto.Message{Type: "STOP"}
		if _, err := s.ipcClient.Dispatch(ctx, s.daemon.SocketPath(), msg); err != nil {
			s.logger.Debug("stop over ipc failed", zap.Error(err))
		}
	}

	pid, err := s.daemon.ReadPID(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.daemon.ClearSocket(ctx)
		}
		return err
	}
	if pid <= 0 || !processAlive(pid) {
		return s.daemon.Clear(ctx)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && processAlive(pid) {
		time.Sleep(100 * time.Millisecond)
	}
	if processAlive(pid) {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("stop daemon pid=%d: %w", pid, err)
		}
		deadline = time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) && processAlive(pid) {
			time.Sleep(100 * time.Millisecond)
		}
		if processAlive(pid) {
			_ = syscall.Kill(pid, syscall.SIGKILL)
		}
	}
	return s.daemon.Clear(ctx)
}

func (s *DaemonService) DaemonStatus(ctx context.Context) (dto.RuntimeStatus, error) {
	out := dto.RuntimeStatus{SocketPath: s.daemon.SocketPath(), LogPath: s.daemon.LogPath()}

	pid, err := s.daemon.ReadPID(ctx)
	if err == nil {
		out.PID = pid
		out.Running = processAlive(pid)
	}
	if out.Running && s.ipcClient != nil {
		resp, err := s.ipcClient.Dispatch(ctx, s.daemon.SocketPath(), dto.Message{Type: "STATUS"})
		if err == nil && resp.OK {
			var status dto.Status
			if found, err := resp.Field("status", &status); found && err == nil {
				out.Status = &status
			}
		}
	}
	return out, nil
}

func (s *DaemonService) DaemonLogs(ctx context.Context, tail int) (string, error) {
	if tail <= 0 {
		tail = defaultLogTailLines
	}
	return s.daemon.TailLog(ctx, tail)
}

// Send prefers the running daemon so the session actor stays single-owner.
func (s *DaemonService) Send(ctx context.Context, msg dto.Message) (dto.Response, error) {
	if s.ipcClient != nil && socketReachable(s.daemon.SocketPath()) {
		resp, err := s.ipcClient.Dispatch(ctx, s.daemon.SocketPath(), msg)
		if err != nil {
			return dto.Response{}, fmt.Errorf("daemon request %s: %w", msg.Type, err)
		}
		return resp, nil
	}
	switch strings.ToUpper(strings.TrimSpace(msg.Type)) {
	case "STOP", "STATUS":
		return dto.Response{}, apperrors.ErrDaemonNotRunning
	}
	return s.Dispatch(ctx, msg), nil
}

func (s *DaemonService) running() (*runtimeState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runtime, s.runtime != nil
}

func (s *DaemonService) cleanupRuntime(ctx context.Context) {
	s.mu.Lock()
	s.runtime = nil
	s.mu.Unlock()
	if err := s.daemon.Clear(ctx); err != nil {
		s.logger.Warn("clear daemon artifacts", zap.Error(err))
	}
}

func (s *DaemonService) cleanupStaleArtifacts(ctx context.Context) error {
	pid, err := s.daemon.ReadPID(ctx)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	} else if pid > 0 && !processAlive(pid) {
		if err := s.daemon.ClearPID(ctx); err != nil {
			return err
		}
	}
	if socketReachable(s.daemon.SocketPath()) {
		return nil
	}
	return s.daemon.ClearSocket(ctx)
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if socketReachable(path) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon socket not ready: %s", path)
}

func socketReachable(path string) bool {
	conn, err := net.DialTimeout("unix", path, 150*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
