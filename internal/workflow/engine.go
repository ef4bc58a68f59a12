// Package workflow implements the S0-S9 stage sequencer: the Engine runs
// each registered Stage in order, retrying recoverable failures with
// exponential backoff, running the {S6, S7} pair concurrently as an
// independent parallel group, and assembling the final ExecutionResult.
// It generalizes the teacher's fluent pipeline.Builder and
// quality_gates.go gate-running idiom to this domain's stage contract.
package workflow

import (
	"context"
	"fmt"
	"time"

	"seoforge/internal/config"
	"seoforge/internal/core"
	"seoforge/internal/logger"
)

// Stage is one named step of the pipeline. Run receives the shared
// ExecutionContext and mutates only the fields its contract declares.
type Stage interface {
	Name() string
	Run(ctx context.Context, ec *core.ExecutionContext) error
}

// ParallelStage is a Stage that the engine may run concurrently with its
// sibling in a ParallelGroup. Implementations must write only to their own
// fields of the shared ExecutionContext.
type ParallelStage interface {
	Stage
}

// ParallelGroup runs two or more stages concurrently against one shared
// ExecutionContext. It takes no snapshot and performs no merge; members
// must write disjoint fields. Used for {S6 Images, S7 Similarity}.
type ParallelGroup struct {
	Name_  string
	Stages []ParallelStage
}

func (g *ParallelGroup) Name() string { return g.Name_ }

// Run executes every member stage concurrently, each against the same
// ExecutionContext pointer. Members must only write to disjoint fields
// (S6 writes ParallelResults.Images, S7 writes ParallelResults.Similarity)
// so no further merge step is required; a failure in one member degrades
// independently and does not cancel its sibling.
func (g *ParallelGroup) Run(ctx context.Context, ec *core.ExecutionContext) error {
	if ec.ParallelResults == nil {
		ec.ParallelResults = &core.ParallelResults{}
	}

	errCh := make(chan error, len(g.Stages))
	for _, s := range g.Stages {
		s := s
		go func() {
			errCh <- s.Run(ctx, ec)
		}()
	}

	var firstErr error
	for range g.Stages {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Engine sequences stages, applying per-stage timeout/retry policy from
// config.WorkflowConfig.
type Engine struct {
	stages []Stage
	cfg    config.WorkflowConfig

	// OnStageComplete, if set, is called synchronously after each stage's
	// timing is recorded, letting a caller (e.g. the watch TUI) render
	// live progress without polling ExecutionResult.
	OnStageComplete func(StageTiming)
}

// NewEngine builds an engine that will run stages in the given order.
func NewEngine(cfg config.WorkflowConfig, stages ...Stage) *Engine {
	return &Engine{stages: stages, cfg: cfg}
}

// StageTiming records one stage's wall-clock duration and outcome.
type StageTiming struct {
	Stage    string
	Duration time.Duration
	Attempts int
	Err      error
}

// Status is the engine's terminal outcome classification, per spec §7/§8.
type Status string

const (
	StatusOK             Status = "ok"
	StatusOKWithWarnings Status = "ok_with_warnings"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
)

// ExecutionResult is the engine's terminal report, per spec §9.
type ExecutionResult struct {
	Status       Status
	FinalArticle *core.ArticleDocument
	Errors       []core.StageError
	Timings      []StageTiming
	Cancelled    bool
}

// Run executes every registered stage in order against ec, stopping early
// only on a fatal error (core.ErrorKind.Fatal, or an S2 UpstreamHard) or
// context cancellation observed at a stage boundary.
func (e *Engine) Run(ctx context.Context, ec *core.ExecutionContext) *ExecutionResult {
	result := &ExecutionResult{}

	for _, stage := range e.stages {
		select {
		case <-ctx.Done():
			result.Cancelled = true
			ec.AddError(stage.Name(), core.Cancelled, "run cancelled before stage start", false)
			return e.finish(ec, result)
		default:
		}

		timing := e.runStageWithRetry(ctx, stage, ec)
		result.Timings = append(result.Timings, timing)
		if e.OnStageComplete != nil {
			e.OnStageComplete(timing)
		}

		if ec.HasFatalError() {
			logger.Error("workflow: fatal error, aborting run", timing.Err, "stage", stage.Name())
			return e.finish(ec, result)
		}
	}

	return e.finish(ec, result)
}

func (e *Engine) finish(ec *core.ExecutionContext, result *ExecutionResult) *ExecutionResult {
	result.FinalArticle = ec.StructuredData
	result.Errors = ec.Errors
	result.Status = deriveStatus(ec, result)
	return result
}

// deriveStatus maps the run's terminal state onto spec §7/§8's
// {ok, ok_with_warnings, failed, cancelled} enum: cancellation and fatal
// errors take priority, then any non-fatal StageError or an S7 similarity
// flag downgrades an otherwise-clean run to ok_with_warnings.
func deriveStatus(ec *core.ExecutionContext, result *ExecutionResult) Status {
	if result.Cancelled {
		return StatusCancelled
	}
	if ec.HasFatalError() {
		return StatusFailed
	}
	if len(ec.Errors) > 0 {
		return StatusOKWithWarnings
	}
	if ec.ParallelResults != nil && ec.ParallelResults.Similarity != nil && len(ec.ParallelResults.Similarity.Flags) > 0 {
		return StatusOKWithWarnings
	}
	return StatusOK
}

// runStageWithRetry runs one stage, retrying with exponential backoff up to
// that stage's configured max retries while the stage's most recent
// StageError is recoverable (see isRecoverable).
func (e *Engine) runStageWithRetry(ctx context.Context, stage Stage, ec *core.ExecutionContext) StageTiming {
	name := stage.Name()
	maxRetries := e.cfg.StageMaxRetries[name]
	timeout := e.cfg.StageTimeouts[name]

	started := time.Now()
	var lastErr error
	var lastErrRecorded bool
	attempts := 0

	for attempt := 0; attempt <= maxRetries; attempt++ {
		attempts++

		stageCtx := ctx
		var cancel context.CancelFunc
		if timeout > 0 {
			stageCtx, cancel = context.WithTimeout(ctx, timeout)
		}

		errCountBefore := len(ec.Errors)
		err := stage.Run(stageCtx, ec)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			lastErr = nil
			lastErrRecorded = false
			break
		}

		lastErr = err
		lastErrRecorded = len(ec.Errors) > errCountBefore
		logger.Warn("workflow: stage failed", "stage", name, "attempt", attempt+1, "error", err.Error())

		if !isRecoverable(ec, name) || attempt == maxRetries {
			break
		}

		if waitErr := e.backoff(ctx, attempt); waitErr != nil {
			lastErr = waitErr
			lastErrRecorded = false
			break
		}
	}

	// Only append a generic fallback entry when the stage's own Run call
	// didn't already classify this attempt's failure itself (spec §7: each
	// stage classifies its own failure). Avoids a contradictory duplicate
	// StageError alongside the stage's precise kind/recoverable values.
	if lastErr != nil && !lastErrRecorded {
		ec.AddError(name, core.UpstreamTransient, lastErr.Error(), true)
	}

	return StageTiming{Stage: name, Duration: time.Since(started), Attempts: attempts, Err: lastErr}
}

// isRecoverable reports whether the most recently recorded error for this
// stage, if any, is flagged recoverable. A stage that returned an error
// without recording a StageError is treated as recoverable by default so
// ad hoc errors still get retried.
func isRecoverable(ec *core.ExecutionContext, stageName string) bool {
	for i := len(ec.Errors) - 1; i >= 0; i-- {
		if ec.Errors[i].Stage == stageName {
			return ec.Errors[i].Recoverable
		}
	}
	return true
}

// backoff sleeps for base*2^attempt, capped, respecting cancellation.
func (e *Engine) backoff(ctx context.Context, attempt int) error {
	base := e.cfg.BackoffBase
	if base <= 0 {
		base = time.Second
	}
	cap_ := e.cfg.BackoffCap
	if cap_ <= 0 {
		cap_ = 30 * time.Second
	}

	wait := base * time.Duration(1<<uint(attempt))
	if wait > cap_ {
		wait = cap_
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
