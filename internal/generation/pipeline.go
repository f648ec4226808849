// Package generation turns a prompt into a materialized project:
// plan, then files, then a workspace holding those files.
package generation

import (
	"context"
	"errors"
	"time"

	"ai-forge/internal/ai"
	"ai-forge/internal/logging"
	"ai-forge/internal/metrics"
	"ai-forge/internal/workspace"
	"ai-forge/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Materializer writes a FileSet into a fresh workspace
type Materializer interface {
	Materialize(ctx context.Context, files *models.FileSet) (*workspace.Materialization, error)
}

// RunRecorder persists the audit record of a run
type RunRecorder interface {
	RecordRun(ctx context.Context, run *models.GenerationRun) error
}

// RunOption customizes a single GenerateProject call
type RunOption func(*runOptions)

type runOptions struct {
	runID       string
	transitions []chan<- StateTransition
}

// WithRunID sets the run identifier instead of generating one
func WithRunID(id string) RunOption {
	return func(o *runOptions) { o.runID = id }
}

// WithTransitions streams every state transition of the run to ch
func WithTransitions(ch chan<- StateTransition) RunOption {
	return func(o *runOptions) { o.transitions = append(o.transitions, ch) }
}

// Pipeline sequences planning, code generation and materialization.
// The first failure aborts the run with one *StageError and no partial result.
type Pipeline struct {
	planner      *Planner
	materializer Materializer
	recorder     RunRecorder
}

// NewPipeline wires the stages together. recorder may be nil.
func NewPipeline(planner *Planner, materializer Materializer, recorder RunRecorder) *Pipeline {
	return &Pipeline{planner: planner, materializer: materializer, recorder: recorder}
}

// GenerateProject runs the full pipeline for prompt
func (p *Pipeline) GenerateProject(ctx context.Context, prompt string, opts ...RunOption) (*models.GeneratedProject, error) {
	o := runOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.New().String()
	}

	fsm := NewRunFSM(o.runID)
	for _, ch := range o.transitions {
		fsm.Subscribe(ch)
	}

	m := metrics.Get()
	m.RunsInFlight.Inc()
	defer m.RunsInFlight.Dec()

	log := logging.WithContext(zap.String("run_id", o.runID))
	log.Info("generation run started", zap.Int("prompt_length", len(prompt)))

	run := &models.GenerationRun{
		ID:       o.runID,
		Prompt:   prompt,
		Provider: string(p.planner.Generator().Provider()),
		Model:    p.planner.Generator().Model(),
	}

	fail := func(stage Stage, started time.Time, err error) (*models.GeneratedProject, error) {
		m.RecordStage(string(stage), false, time.Since(started))
		_ = fsm.Fail(err)

		reason := ""
		if gerr, ok := ai.AsGenerationError(err); ok {
			reason = string(gerr.Reason)
		}
		metrics.RecordRunFinalization(models.RunStatusFailed, string(stage), reason)
		log.Error("generation run failed", zap.String("stage", string(stage)), zap.Error(err))

		run.Status = models.RunStatusFailed
		run.FailedStage = string(stage)
		run.Error = err.Error()
		run.DurationMs = fsm.ElapsedMs()
		p.record(ctx, run)

		return nil, &StageError{RunID: o.runID, Stage: stage, Err: err}
	}

	if err := fsm.Transition(EventStart); err != nil {
		return nil, err
	}

	started := time.Now()
	plan, err := p.planner.PlanProject(ctx, prompt)
	if err != nil {
		return fail(StagePlanning, started, err)
	}
	m.RecordStage(string(StagePlanning), true, time.Since(started))
	log.Info("project plan ready",
		zap.Int("features", len(plan.Features)),
		zap.Int("steps", len(plan.ImplementationSteps)),
	)
	if err := fsm.Transition(EventPlanReady); err != nil {
		return nil, err
	}

	started = time.Now()
	files, rejected, err := p.planner.GenerateFiles(ctx, plan)
	if err != nil {
		return fail(StageCodeGeneration, started, err)
	}
	m.RecordStage(string(StageCodeGeneration), true, time.Since(started))
	for _, r := range rejected {
		log.Warn("skipping unwritable file path", zap.String("path", r.Path), zap.String("error", r.Error))
	}
	if files.Len() == 0 {
		log.Warn("model returned no files")
	}
	if err := fsm.Transition(EventFilesReady); err != nil {
		return nil, err
	}

	started = time.Now()
	mat, err := p.materializer.Materialize(ctx, files)
	if err == nil && mat == nil {
		err = errors.New("materializer returned no workspace")
	}
	if err != nil {
		return fail(StageMaterializing, started, err)
	}
	m.RecordStage(string(StageMaterializing), true, time.Since(started))

	results := append(mat.Results, rejected...)
	project := &models.GeneratedProject{
		Plan:         RenderPlan(prompt, plan),
		Files:        files,
		WorkspaceID:  mat.WorkspaceID,
		WriteResults: results,
		FailedWrites: mat.FailedCount() + len(rejected),
	}

	if err := fsm.Transition(EventMaterialized); err != nil {
		return nil, err
	}

	m.GeneratedFiles.Observe(float64(files.Len()))
	metrics.RecordRunFinalization(models.RunStatusDone, "", "")
	if project.FailedWrites > 0 {
		metrics.RecordPartialMaterialization(mat.Provider)
	}
	log.Info("generation run completed",
		zap.String("workspace_id", project.WorkspaceID),
		zap.Int("files", files.Len()),
		zap.Int("failed_writes", project.FailedWrites),
		zap.Int64("elapsed_ms", fsm.ElapsedMs()),
	)

	run.Status = models.RunStatusDone
	run.WorkspaceID = project.WorkspaceID
	run.FileCount = files.Len()
	run.FailedWrites = project.FailedWrites
	run.DurationMs = fsm.ElapsedMs()
	p.record(ctx, run)

	return project, nil
}

// record stores the run audit record; failures never affect the run result
func (p *Pipeline) record(ctx context.Context, run *models.GenerationRun) {
	if p.recorder == nil {
		return
	}
	// the caller's ctx may already be cancelled when a run fails
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.recorder.RecordRun(recordCtx, run); err != nil {
		logging.L().Warn("failed to record generation run", zap.String("run_id", run.ID), zap.Error(err))
	}
}
