// Package ipc hosts one long-lived inference worker process per
// sidecar, and speaks newline-delimited JSON over its stdin/stdout.
// Engines under internal/engine pool these as pool.Context instances
// instead of round-robin load-balancing across them, so one WorkerProcess
// corresponds to exactly one leased context.
//
// Adapted from the teacher's ipc.PythonService/WorkerPool: the
// stdin/stdout JSON-line protocol and unbuffered-interpreter invocation
// are kept, but the fixed round-robin WorkerPool is gone — acquiring and
// recycling WorkerProcess instances is now internal/pool.ContextPool's
// job, since the spec requires blocking acquire rather than load
// balancing across a fixed set.
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/GonzoDMX/rag-anywhere/internal/errs"
)

// Spawner describes how to launch one worker process: the interpreter
// binary, the script it runs, and any extra arguments (e.g. a model
// path). Unbuffered mode ("-u" for Python) is the caller's
// responsibility to include in Args when the interpreter needs it.
type Spawner struct {
	Command string
	Args    []string
	Dir     string
}

// WorkerProcess manages one background inference worker and the
// request/response protocol used to talk to it. It implements
// pool.Context so it can be leased directly out of a ContextPool.
type WorkerProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader // buffered reader, not a Scanner: vector batches can exceed 64KB lines
	mu     sync.Mutex
	alive  bool
}

// Spawn starts one worker process per the given Spawner.
func Spawn(s Spawner) (*WorkerProcess, error) {
	cmd := exec.Command(s.Command, s.Args...)
	if s.Dir != "" {
		cmd.Dir = s.Dir
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errs.Wrap(errs.EngineError, "open worker stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errs.Wrap(errs.EngineError, "open worker stdout", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, errs.Wrap(errs.EngineError, fmt.Sprintf("start worker %q", s.Command), err)
	}

	return &WorkerProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		alive:  true,
	}, nil
}

// Call sends req as one JSON line and decodes the worker's single JSON
// line response into resp. Calls on the same WorkerProcess are
// serialized; concurrent callers should lease distinct WorkerProcess
// instances from a ContextPool instead.
func (w *WorkerProcess) Call(req, resp interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.alive {
		return errs.New(errs.EngineError, "worker process is not running")
	}

	reqBytes, err := json.Marshal(req)
	if err != nil {
		return errs.Wrap(errs.EngineError, "marshal worker request", err)
	}

	if _, err := w.stdin.Write(append(reqBytes, '\n')); err != nil {
		return errs.Wrap(errs.EngineError, "write worker request", err)
	}

	respBytes, err := w.stdout.ReadBytes('\n')
	if err != nil {
		return errs.Wrap(errs.EngineError, "read worker response (worker may have crashed)", err)
	}

	if err := json.Unmarshal(respBytes, resp); err != nil {
		return errs.Wrap(errs.EngineError, fmt.Sprintf("worker returned invalid JSON: %s", respBytes), err)
	}

	return nil
}

// Close signals EOF to the worker via stdin, then kills it at once
// without waiting for it to exit on its own, and reaps it. Satisfies
// pool.Context.
func (w *WorkerProcess) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.alive {
		return nil
	}
	w.alive = false

	_ = w.stdin.Close()
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
	return w.cmd.Wait()
}
