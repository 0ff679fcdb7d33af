package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/yungbote/omex-backend/internal/platform/ctxutil"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

// Runner invokes the external document-to-mindmap converter.
//
// The converter is any executable that takes a PDF path as its last argument,
// writes a JSON array of mindmaps to stdout and exits 0.
type Runner interface {
	AssertReady(ctx context.Context) error
	Run(ctx context.Context, inputPath string) ([]byte, error)
	WriteTempFile(ctx context.Context, r io.Reader, suffix string) (string, func(), error)
}

type Config struct {
	Command        string
	Args           []string
	Timeout        time.Duration
	MaxConcurrency int64
	WorkDir        string
	// MaxStderrBytes caps the diagnostic text kept from a failed run.
	MaxStderrBytes int
}

// ProcessError is returned when the converter exits non-zero or is killed.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("converter exited with code %d: %v", e.ExitCode, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

var ErrTimeout = errors.New("converter timed out")

type runner struct {
	log *logger.Logger
	cfg Config
	sem *semaphore.Weighted
}

func New(log *logger.Logger, cfg Config) Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = filepath.Join(os.TempDir(), "omex-convert")
	}
	if cfg.MaxStderrBytes <= 0 {
		cfg.MaxStderrBytes = 4096
	}
	return &runner{
		log: log.With("service", "ConverterRunner"),
		cfg: cfg,
		sem: semaphore.NewWeighted(cfg.MaxConcurrency),
	}
}

func (r *runner) AssertReady(ctx context.Context) error {
	if strings.TrimSpace(r.cfg.Command) == "" {
		return fmt.Errorf("converter command not configured")
	}
	if _, err := exec.LookPath(r.cfg.Command); err != nil {
		return fmt.Errorf("missing converter binary %q in PATH: %w", r.cfg.Command, err)
	}
	if err := os.MkdirAll(r.cfg.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create converter work dir: %w", err)
	}
	return nil
}

func (r *runner) Run(ctx context.Context, inputPath string) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for converter slot: %w", err)
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	args := append(append([]string{}, r.cfg.Args...), inputPath)
	cmd := exec.CommandContext(ctx, r.cfg.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Grandchildren may hold the pipes open after the converter is killed.
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %v", ErrTimeout, r.cfg.Timeout, err)
		}
		perr := &ProcessError{ExitCode: -1, Stderr: truncate(stderr.String(), r.cfg.MaxStderrBytes), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			perr.ExitCode = exitErr.ExitCode()
		}
		r.log.Warn("converter failed", "exit_code", perr.ExitCode, "duration_ms", elapsed.Milliseconds(), "error", err)
		return nil, perr
	}
	r.log.Debug("converter finished", "duration_ms", elapsed.Milliseconds(), "stdout_bytes", stdout.Len())
	return stdout.Bytes(), nil
}

// WriteTempFile copies r into a uniquely named file under the work dir.
// The returned cleanup removes it.
func (r *runner) WriteTempFile(ctx context.Context, src io.Reader, suffix string) (string, func(), error) {
	if err := os.MkdirAll(r.cfg.WorkDir, 0o755); err != nil {
		return "", func() {}, fmt.Errorf("create converter work dir: %w", err)
	}
	path := filepath.Join(r.cfg.WorkDir, uuid.NewString()+suffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", func() {}, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(path) }
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("close temp file: %w", err)
	}
	return path, cleanup, nil
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
