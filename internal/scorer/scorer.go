// Package scorer talks to the external anomaly scorer. Instead of spawning a
// process per event, one worker process is kept alive and spoken to over
// newline-delimited JSON on stdin/stdout: one event document out, one
// {"anomalyScore": x} document back. Outstanding requests are bounded and
// each carries a timeout; any protocol failure tears the worker down and the
// next call respawns it.
package scorer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/logsift/logsift/internal/engine"
	"github.com/logsift/logsift/internal/model"
)

// Config controls the worker process and its request discipline.
type Config struct {
	// Command is the scorer executable and its arguments.
	Command []string
	// Timeout bounds a single scoring round-trip.
	Timeout time.Duration
	// MaxInFlight bounds callers queued on the worker. Exchanges themselves
	// run one at a time over the single worker's pipes; callers beyond the
	// bound give up as soon as their context does instead of piling up
	// behind a slow worker.
	MaxInFlight int64
}

// DefaultConfig bounds a round-trip at 2s with at most 8 queued callers.
func DefaultConfig(command []string) Config {
	return Config{
		Command:     command,
		Timeout:     2 * time.Second,
		MaxInFlight: 8,
	}
}

// Worker is a client for one long-lived scorer process.
type Worker struct {
	cfg    Config
	logger *zap.Logger
	sem    *semaphore.Weighted

	// mu serializes the write-request/read-reply exchange on the pipes.
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	parser fastjson.Parser
}

// New creates a scorer client. The worker process is started lazily on the
// first Score call.
func New(cfg Config, logger *zap.Logger) *Worker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 8
	}
	return &Worker{
		cfg:    cfg,
		logger: logger,
		sem:    semaphore.NewWeighted(cfg.MaxInFlight),
	}
}

// Score sends the event to the worker and returns its anomaly score.
// Every failure mode (spawn error, timeout, worker death, malformed or
// out-of-range reply) is reported as ErrCollaboratorUnavailable.
func (w *Worker) Score(ctx context.Context, ev model.LogEvent) (float64, error) {
	if len(w.cfg.Command) == 0 {
		return 0, fmt.Errorf("%w: no scorer command configured", engine.ErrCollaboratorUnavailable)
	}

	if err := w.sem.Acquire(ctx, 1); err != nil {
		return 0, fmt.Errorf("%w: %v", engine.ErrCollaboratorUnavailable, err)
	}
	defer w.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureWorker(); err != nil {
		return 0, fmt.Errorf("%w: %v", engine.ErrCollaboratorUnavailable, err)
	}

	// Capture the pipes here: on timeout, teardown nils the fields while the
	// round-trip goroutine may still be running.
	stdin, stdout := w.stdin, w.stdout

	type reply struct {
		score float64
		err   error
	}
	done := make(chan reply, 1)
	go func() {
		score, err := w.roundTrip(stdin, stdout, ev)
		done <- reply{score, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			w.teardown()
			return 0, fmt.Errorf("%w: %v", engine.ErrCollaboratorUnavailable, r.err)
		}
		return r.score, nil
	case <-ctx.Done():
		// Killing the worker unblocks the pending read.
		w.teardown()
		<-done
		return 0, fmt.Errorf("%w: scorer timed out after %v", engine.ErrCollaboratorUnavailable, w.cfg.Timeout)
	}
}

// Close stops the worker process if one is running.
func (w *Worker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.teardown()
}

// ensureWorker starts the worker process if none is alive. Caller holds w.mu.
func (w *Worker) ensureWorker() error {
	if w.cmd != nil {
		return nil
	}

	cmd := exec.Command(w.cfg.Command[0], w.cfg.Command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	w.cmd = cmd
	w.stdin = stdin
	w.stdout = bufio.NewReader(stdout)
	w.logger.Info("anomaly scorer worker started",
		zap.Strings("command", w.cfg.Command), zap.Int("pid", cmd.Process.Pid))
	return nil
}

// roundTrip performs one request/reply exchange on the given pipes. Score
// serializes invocations, so at most one exchange is in flight at a time.
func (w *Worker) roundTrip(stdin io.WriteCloser, stdout *bufio.Reader, ev model.LogEvent) (float64, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	if _, err := stdin.Write(data); err != nil {
		return 0, fmt.Errorf("scorer write: %v", err)
	}

	line, err := stdout.ReadBytes('\n')
	if err != nil {
		return 0, fmt.Errorf("scorer read: %v", err)
	}

	v, err := w.parser.ParseBytes(line)
	if err != nil {
		return 0, fmt.Errorf("scorer reply parse: %v", err)
	}
	if !v.Exists("anomalyScore") {
		return 0, fmt.Errorf("scorer reply missing anomalyScore")
	}
	score := v.GetFloat64("anomalyScore")
	if score < 0 || score > 1 {
		return 0, fmt.Errorf("anomaly score %v out of range", score)
	}
	return score, nil
}

// teardown kills the worker and forgets it. Caller holds w.mu.
func (w *Worker) teardown() {
	if w.cmd == nil {
		return
	}
	if w.stdin != nil {
		_ = w.stdin.Close()
	}
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
	_ = w.cmd.Wait()
	w.logger.Warn("anomaly scorer worker stopped, will respawn on next call")
	w.cmd = nil
	w.stdin = nil
	w.stdout = nil
}
