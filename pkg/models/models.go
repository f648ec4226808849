package models

import (
	"time"
)

// ProjectPlan is the structured plan produced by the planning stage.
// It is informational only and never parsed beyond rendering.
type ProjectPlan struct {
	Overview            string   `json:"overview"`
	Features            []string `json:"features"`
	TechStack           []string `json:"techStack"`
	FolderStructure     string   `json:"folderStructure"`
	ImplementationSteps []string `json:"implementationSteps"`
}

// FileWriteResult records the outcome of writing one file into a workspace
type FileWriteResult struct {
	Path    string `json:"path"`
	Written bool   `json:"written"`
	Error   string `json:"error,omitempty"`
}

// GeneratedProject is the result of one successful pipeline run.
// It is created once and not mutated afterwards.
type GeneratedProject struct {
	Plan         string            `json:"plan"`
	Files        *FileSet          `json:"files"`
	WorkspaceID  string            `json:"workspaceId"`
	WriteResults []FileWriteResult `json:"writeResults"`
	FailedWrites int               `json:"failedWrites"`
}

// Run statuses stored on GenerationRun
const (
	RunStatusDone   = "done"
	RunStatusFailed = "failed"
)

// GenerationRun is the audit record written for every pipeline run.
// Records are write-only history and are never used to serve a generation.
type GenerationRun struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Prompt      string `json:"prompt" gorm:"type:text;not null"`
	Status      string `json:"status" gorm:"size:16;index;not null"` // done, failed
	FailedStage string `json:"failed_stage,omitempty" gorm:"size:32"`
	Error       string `json:"error,omitempty" gorm:"type:text"`

	Provider string `json:"provider" gorm:"size:32"` // gemini, ollama
	Model    string `json:"model" gorm:"size:128"`

	WorkspaceID  string `json:"workspace_id,omitempty" gorm:"size:128"`
	FileCount    int    `json:"file_count" gorm:"default:0"`
	FailedWrites int    `json:"failed_writes" gorm:"default:0"`
	DurationMs   int64  `json:"duration_ms" gorm:"default:0"`
}

// TableName pins the table name for GenerationRun
func (GenerationRun) TableName() string {
	return "generation_runs"
}
