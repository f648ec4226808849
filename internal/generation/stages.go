package generation

import (
	"context"
	"fmt"

	"ai-forge/internal/ai"
	"ai-forge/internal/filetree"
	"ai-forge/internal/workspace"
	"ai-forge/pkg/models"
)

// Planner runs the two model-backed stages: planning and code generation
type Planner struct {
	gen *ai.Generator
}

// NewPlanner creates a Planner on top of a structured generator
func NewPlanner(gen *ai.Generator) *Planner {
	return &Planner{gen: gen}
}

// Generator returns the underlying structured generator
func (p *Planner) Generator() *ai.Generator {
	return p.gen
}

// PlanProject turns a prompt into a ProjectPlan. Errors are the
// generator's *ai.GenerationError, unchanged.
func (p *Planner) PlanProject(ctx context.Context, prompt string) (*models.ProjectPlan, error) {
	var plan models.ProjectPlan
	if err := p.gen.Generate(ctx, PlanSchema, SystemPrompt, planPrompt(prompt), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// GenerateFiles produces the project files for plan. Paths are normalized to
// clean relative paths. A key that cannot be normalized, or that duplicates an
// earlier key after normalization, is left out of the FileSet and returned as a
// failed write result instead. File/folder conflicts are schema violations.
// An empty result is valid.
func (p *Planner) GenerateFiles(ctx context.Context, plan *models.ProjectPlan) (*models.FileSet, []models.FileWriteResult, error) {
	var raw models.FileSet
	if err := p.gen.Generate(ctx, FilesSchema, SystemPrompt, codegenPrompt(plan), &raw); err != nil {
		return nil, nil, err
	}

	files, rejected := normalizeFiles(&raw)
	if err := filetree.ValidatePaths(files); err != nil {
		return nil, nil, &ai.GenerationError{
			Provider: p.gen.Provider(),
			Schema:   FilesSchema.Name,
			Reason:   ai.ReasonSchemaViolation,
			Err:      err,
		}
	}
	return files, rejected, nil
}

func normalizeFiles(raw *models.FileSet) (*models.FileSet, []models.FileWriteResult) {
	files := models.NewFileSet()
	var rejected []models.FileWriteResult
	for path, content := range raw.All() {
		clean, err := filetree.NormalizePath(path)
		if err == nil {
			if _, exists := files.Get(clean); exists {
				err = fmt.Errorf("duplicates %q after normalization", clean)
			}
		}
		if err != nil {
			werr := &workspace.FileWriteError{Path: path, Err: err}
			rejected = append(rejected, models.FileWriteResult{Path: path, Written: false, Error: werr.Error()})
			continue
		}
		files.Set(clean, content)
	}
	return files, rejected
}
