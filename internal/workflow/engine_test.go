package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"seoforge/internal/config"
	"seoforge/internal/core"
)

type fakeStage struct {
	name    string
	runFunc func(ctx context.Context, ec *core.ExecutionContext) error
	calls   int
}

func (f *fakeStage) Name() string { return f.name }
func (f *fakeStage) Run(ctx context.Context, ec *core.ExecutionContext) error {
	f.calls++
	return f.runFunc(ctx, ec)
}

func testWorkflowConfig() config.WorkflowConfig {
	return config.WorkflowConfig{
		BackoffBase:     time.Millisecond,
		BackoffCap:      5 * time.Millisecond,
		StageMaxRetries: map[string]int{"S0": 2, "S1": 0},
		StageTimeouts:   map[string]time.Duration{},
	}
}

func TestEngine_RunsStagesInOrder(t *testing.T) {
	var order []string
	s1 := &fakeStage{name: "S0", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		order = append(order, "S0")
		return nil
	}}
	s2 := &fakeStage{name: "S1", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		order = append(order, "S1")
		return nil
	}}

	engine := NewEngine(testWorkflowConfig(), s1, s2)
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	result := engine.Run(context.Background(), ec)

	if len(order) != 2 || order[0] != "S0" || order[1] != "S1" {
		t.Fatalf("unexpected stage order: %v", order)
	}
	if result.Cancelled {
		t.Error("did not expect a cancelled result")
	}
}

func TestEngine_RetriesRecoverableFailure(t *testing.T) {
	attempts := 0
	s := &fakeStage{name: "S0", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient failure")
		}
		return nil
	}}

	engine := NewEngine(testWorkflowConfig(), s)
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	engine.Run(context.Background(), ec)

	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestEngine_StopsOnFatalError(t *testing.T) {
	s1 := &fakeStage{name: "S0", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		ec.AddError("S0", core.InputInvalid, "bad input", false)
		return errors.New("bad input")
	}}
	s2 := &fakeStage{name: "S1", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		return nil
	}}

	engine := NewEngine(testWorkflowConfig(), s1, s2)
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	engine.Run(context.Background(), ec)

	if s2.calls != 0 {
		t.Error("expected S1 to be skipped after a fatal S0 error")
	}
}

func TestEngine_DoesNotDuplicateStageOwnErrorClassification(t *testing.T) {
	s1 := &fakeStage{name: "S0", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		ec.AddError("S0", core.InputInvalid, "bad input", false)
		return errors.New("bad input")
	}}

	engine := NewEngine(testWorkflowConfig(), s1)
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	engine.Run(context.Background(), ec)

	if len(ec.Errors) != 1 {
		t.Fatalf("expected exactly one StageError for S0, got %d: %+v", len(ec.Errors), ec.Errors)
	}
	if ec.Errors[0].Kind != core.InputInvalid || ec.Errors[0].Recoverable {
		t.Errorf("expected the stage's own InputInvalid/non-recoverable classification to survive unmodified, got %+v", ec.Errors[0])
	}
}

func TestEngine_AddsFallbackErrorWhenStageDoesNotClassifyItsOwnFailure(t *testing.T) {
	s1 := &fakeStage{name: "S1", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		return errors.New("unclassified failure")
	}}

	engine := NewEngine(testWorkflowConfig(), s1)
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	engine.Run(context.Background(), ec)

	if len(ec.Errors) != 1 {
		t.Fatalf("expected exactly one fallback StageError for S1, got %d: %+v", len(ec.Errors), ec.Errors)
	}
	if ec.Errors[0].Kind != core.UpstreamTransient {
		t.Errorf("expected fallback UpstreamTransient classification, got %+v", ec.Errors[0])
	}
}

func TestEngine_CancelledContextStopsBeforeNextStage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s1 := &fakeStage{name: "S0", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		cancel()
		return nil
	}}
	s2 := &fakeStage{name: "S1", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		return nil
	}}

	engine := NewEngine(testWorkflowConfig(), s1, s2)
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	result := engine.Run(ctx, ec)

	if !result.Cancelled {
		t.Error("expected result to report cancellation")
	}
	if s2.calls != 0 {
		t.Error("expected S1 to be skipped after cancellation")
	}
}

func TestEngine_StatusOKWithWarningsWhenSimilarityFlagged(t *testing.T) {
	s := &fakeStage{name: "S7", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		ec.ParallelResults = &core.ParallelResults{
			Similarity: &core.SimilarityReport{Flags: []core.SimilarityFlag{{}}},
		}
		return nil
	}}

	engine := NewEngine(testWorkflowConfig(), s)
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	result := engine.Run(context.Background(), ec)

	if result.Status != StatusOKWithWarnings {
		t.Errorf("expected status ok_with_warnings, got %q", result.Status)
	}
}

func TestEngine_StatusOKWhenClean(t *testing.T) {
	s := &fakeStage{name: "S0", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		return nil
	}}

	engine := NewEngine(testWorkflowConfig(), s)
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	result := engine.Run(context.Background(), ec)

	if result.Status != StatusOK {
		t.Errorf("expected status ok, got %q", result.Status)
	}
}

func TestEngine_StatusFailedOnFatalError(t *testing.T) {
	s := &fakeStage{name: "S0", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		ec.AddError("S0", core.InputInvalid, "bad input", false)
		return errors.New("bad input")
	}}

	engine := NewEngine(testWorkflowConfig(), s)
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	result := engine.Run(context.Background(), ec)

	if result.Status != StatusFailed {
		t.Errorf("expected status failed, got %q", result.Status)
	}
}

func TestEngine_StatusCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s1 := &fakeStage{name: "S0", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		cancel()
		return nil
	}}
	s2 := &fakeStage{name: "S1", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		return nil
	}}

	engine := NewEngine(testWorkflowConfig(), s1, s2)
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)
	result := engine.Run(ctx, ec)

	if result.Status != StatusCancelled {
		t.Errorf("expected status cancelled, got %q", result.Status)
	}
}

func TestParallelGroup_RunsBothMembersAndToleratesOneFailure(t *testing.T) {
	var calledA, calledB bool
	groupA := &fakeStage{name: "S6", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		calledA = true
		return nil
	}}
	groupB := &fakeStage{name: "S7", runFunc: func(ctx context.Context, ec *core.ExecutionContext) error {
		calledB = true
		return errors.New("similarity check failed")
	}}

	group := &ParallelGroup{Name_: "S6S7", Stages: []ParallelStage{groupA, groupB}}
	ec := core.NewExecutionContext(core.JobConfig{Keyword: "widgets"}, nil)

	err := group.Run(context.Background(), ec)
	if err == nil {
		t.Error("expected the failing member's error to surface")
	}
	if !calledA || !calledB {
		t.Error("expected both parallel members to run")
	}
}
