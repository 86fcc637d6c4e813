package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Result records one hook run.
type Result struct {
	Hook     Hook
	Phase    Phase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Executor runs hooks for one export.
type Executor struct {
	config  *Config
	ctx     ExportContext
	results []Result
}

// NewExecutor creates an executor for cfg and the export described by ec.
func NewExecutor(cfg *Config, ec ExportContext) *Executor {
	if cfg == nil {
		cfg = &Config{}
	}
	if ec.Timestamp.IsZero() {
		ec.Timestamp = time.Now()
	}
	return &Executor{config: cfg, ctx: ec}
}

// RunPreExport runs the pre-export hooks in order and stops at the first
// failing hook whose policy is fail.
func (e *Executor) RunPreExport(ctx context.Context) error {
	for _, h := range e.config.For(PreExport) {
		r := e.run(ctx, h, PreExport)
		if !r.Success && h.OnError == OnErrorFail {
			return fmt.Errorf("pre-export hook %q failed: %w", h.Name, r.Error)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook and joins the errors of the
// failing hooks whose policy is fail.
func (e *Executor) RunPostExport(ctx context.Context) error {
	var errs []error
	for _, h := range e.config.For(PostExport) {
		r := e.run(ctx, h, PostExport)
		if !r.Success && h.OnError == OnErrorFail {
			errs = append(errs, fmt.Errorf("post-export hook %q failed: %w", h.Name, r.Error))
		}
	}
	return errors.Join(errs...)
}

func (e *Executor) run(ctx context.Context, h Hook, phase Phase) Result {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", h.Command)
	env := append(os.Environ(), e.ctx.ToEnv()...)
	for k, v := range h.Env {
		env = append(env, k+"="+expandEnv(v, env))
	}
	cmd.Env = env
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r := Result{
		Hook:     h,
		Phase:    phase,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
		Success:  err == nil,
	}
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %v", timeout)
		}
		r.Error = err
	}
	e.results = append(e.results, r)
	return r
}

// expandEnv expands $VARS in s against env, later entries winning.
func expandEnv(s string, env []string) string {
	vars := make(map[string]string, len(env))
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return os.Expand(s, func(k string) string { return vars[k] })
}

// Results returns the runs so far, in order.
func (e *Executor) Results() []Result {
	return e.results
}

// Summary is a human readable report of the runs.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return "No hooks executed"
	}
	var sb strings.Builder
	failed := 0
	for _, r := range e.results {
		if !r.Success {
			failed++
		}
	}
	fmt.Fprintf(&sb, "Hooks: %d run, %d failed\n", len(e.results), failed)
	for _, r := range e.results {
		status := "ok"
		if !r.Success {
			status = "FAILED"
		}
		fmt.Fprintf(&sb, "  [%s] %s: %s (%v)\n", r.Phase, r.Hook.Name, status, r.Duration.Round(time.Millisecond))
		if !r.Success {
			if r.Error != nil {
				fmt.Fprintf(&sb, "    error: %v\n", r.Error)
			}
			if r.Stderr != "" {
				fmt.Fprintf(&sb, "    stderr: %s\n", truncate(r.Stderr, 200))
			}
		}
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
