package executor

import (
	"context"
	"log/slog"
	"sync"
)

// CheckExecutor runs a checking pass on Start and on every watch event.
// Passes never overlap.
type CheckExecutor struct {
	logger    *slog.Logger
	parentCtx context.Context
	run       func(context.Context) int

	runMu sync.Mutex

	mu       sync.Mutex
	abort    func()
	lastCode int
	passes   int
}

type CheckExecutorArgs struct {
	Logger *slog.Logger

	// Run performs one full pass and returns its exit code
	Run func(context.Context) int
}

func NewCheckExecutor(ctx context.Context, args CheckExecutorArgs) *CheckExecutor {
	if args.Logger == nil {
		args.Logger = slog.Default()
	}

	return &CheckExecutor{
		parentCtx: ctx,
		logger:    args.Logger.With("component", "check-executor"),
		run:       args.Run,
	}
}

func (ex *CheckExecutor) pass() {
	ex.runMu.Lock()
	defer ex.runMu.Unlock()

	if ex.parentCtx.Err() != nil {
		ex.logger.Debug("skipping pass, parent context is done")
		return
	}

	ex.mu.Lock()
	ctx, cf := context.WithCancel(ex.parentCtx)
	ex.abort = cf
	ex.mu.Unlock()

	code := ex.run(ctx)

	ex.mu.Lock()
	ex.abort = nil
	// a pass cut short by Stop says nothing about the servers
	if ctx.Err() == nil || ex.passes == 0 {
		ex.lastCode = code
		ex.passes++
	}
	ex.mu.Unlock()
	cf()

	ex.logger.Debug("pass finished", "exit-code", code)
}

// Start implements Executor.
func (ex *CheckExecutor) Start() error {
	ex.pass()
	return nil
}

// OnWatchEvent implements Executor.
func (ex *CheckExecutor) OnWatchEvent(ev Event) error {
	ex.logger.Debug("re-checking", "source", ev.Source)
	ex.pass()
	return nil
}

// Stop implements Executor.
func (ex *CheckExecutor) Stop() error {
	ex.mu.Lock()
	if ex.abort != nil {
		ex.abort()
	}
	ex.mu.Unlock()
	return nil
}

// ExitCode returns the exit code of the last completed pass.
func (ex *CheckExecutor) ExitCode() int {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.lastCode
}

// Passes returns how many passes have completed.
func (ex *CheckExecutor) Passes() int {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.passes
}

var _ Executor = (*CheckExecutor)(nil)
