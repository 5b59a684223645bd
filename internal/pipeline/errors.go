package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoResult means a transcriber reported success without a result.
var ErrNoResult = errors.New("transcriber returned no result")

// PipelineError aborts a whole run: a segment could not be fetched or
// transcribed within its retry budget, or the run was cancelled. No partial
// timeline accompanies it.
type PipelineError struct {
	Segment  int
	Attempts int
	Err      error
}

func (e *PipelineError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("segment %d failed after %d attempt(s): %v", e.Segment, e.Attempts, e.Err)
	}
	return fmt.Sprintf("segment %d: %v", e.Segment, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
