package generation

import (
	"errors"
	"fmt"
)

// Stage identifies the pipeline stage that failed
type Stage string

const (
	StagePlanning       Stage = "planning"
	StageCodeGeneration Stage = "code_generation"
	StageMaterializing  Stage = "materializing"
)

// StageError is the single error returned by a failed run
type StageError struct {
	RunID string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("failed to generate project: %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// AsStageError extracts a StageError from err's chain
func AsStageError(err error) (*StageError, bool) {
	var serr *StageError
	if errors.As(err, &serr) {
		return serr, true
	}
	return nil, false
}
