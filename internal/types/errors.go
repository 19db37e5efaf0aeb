package types

import (
	"errors"
	"fmt"
)

// Stage identifies a pipeline stage.
type Stage string

const (
	StageIngestion   Stage = "ingestion"
	StageAnalysis    Stage = "analysis"
	StageCorrelation Stage = "correlation"
	StagePrediction  Stage = "prediction"
)

// ErrNoData is returned when neither live nor cached data exists.
var ErrNoData = errors.New("no data available")

// StageError wraps a failure with the stage it occurred in.
type StageError struct {
	Stage Stage
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failure: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// NewStageError wraps cause for the given stage.
func NewStageError(stage Stage, cause error) *StageError {
	return &StageError{Stage: stage, Cause: cause}
}

// StageOf returns the stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
