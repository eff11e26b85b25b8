package out

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	daemonout "lockin/internal/modules/daemon/port/out"
)

// FileDaemonStore owns the daemon's runtime artifacts: pid file, unix socket
// path and append-only log.
type FileDaemonStore struct {
	dataDir    string
	pidPath    string
	socketPath string
	logPath    string
}

// NewFileDaemonStore keeps daemon artifacts in dataDir. An empty socketPath
// defaults to dataDir/daemon.sock.
func NewFileDaemonStore(dataDir, socketPath string) daemonout.DaemonStore {
	if socketPath == "" {
		socketPath = filepath.Join(dataDir, "daemon.sock")
	}
	return &FileDaemonStore{
		dataDir:    dataDir,
		pidPath:    filepath.Join(dataDir, "daemon.pid"),
		socketPath: socketPath,
		logPath:    filepath.Join(dataDir, "daemon.log"),
	}
}

// WritePID replaces the pid file atomically so a concurrent reader never sees
// a half-written number.
func (s *FileDaemonStore) WritePID(_ context.Context, pid int) error {
	if err := os.MkdirAll(s.dataDir, 0o700); err != nil {
		return fmt.Errorf("create daemon dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dataDir, ".daemon.pid-*")
	if err != nil {
		return fmt.Errorf("create pid temp file: %w", err)
	}
	if _, err := tmp.WriteString(strconv.Itoa(pid) + "\n"); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write pid: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close pid temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.pidPath); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("install pid file: %w", err)
	}
	return nil
}

// ReadPID returns an error wrapping os.ErrNotExist when no daemon was recorded.
func (s *FileDaemonStore) ReadPID(_ context.Context) (int, error) {
	raw, err := os.ReadFile(s.pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("decode daemon pid: %w", err)
	}
	return pid, nil
}

func (s *FileDaemonStore) ClearPID(_ context.Context) error {
	return removeIfExists(s.pidPath, "daemon pid")
}

func (s *FileDaemonStore) ClearSocket(_ context.Context) error {
	return removeIfExists(s.socketPath, "daemon socket")
}

// Clear drops both the pid file and the socket, reporting the first failure.
func (s *FileDaemonStore) Clear(ctx context.Context) error {
	return errors.Join(s.ClearPID(ctx), s.ClearSocket(ctx))
}

func (s *FileDaemonStore) SocketPath() string {
	return s.socketPath
}

func (s *FileDaemonStore) LogPath() string {
	return s.logPath
}

// OpenLog opens the daemon log for appending; the background launcher points
// the child's stdout and stderr at it.
func (s *FileDaemonStore) OpenLog() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(s.logPath), 0o700); err != nil {
		return nil, fmt.Errorf("create daemon log dir: %w", err)
	}
	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open daemon log: %w", err)
	}
	return f, nil
}

// TailLog returns the last n lines of the daemon log. A missing log is empty.
func (s *FileDaemonStore) TailLog(_ context.Context, n int) (string, error) {
	file, err := os.Open(s.logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("open daemon log: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) < n {
			lines = append(lines, line)
			continue
		}
		copy(lines, lines[1:])
		lines[len(lines)-1] = line
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("scan daemon log: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

func removeIfExists(path, what string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", what, err)
	}
	return nil
}
