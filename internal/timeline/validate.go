package timeline

import (
	"fmt"
	"math"

	"github.com/lexiqai/narration-pipeline/internal/captions"
)

// ValidationError reports a range that cannot be exported.
type ValidationError struct {
	Index  int
	Range  TimeRange
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("entry %d [%.3f, %.3f]: %s", e.Index, e.Range.StartTime, e.Range.EndTime, e.Reason)
}

// Validate checks a single range.
func Validate(index int, r TimeRange) error {
	switch {
	case math.IsNaN(r.StartTime) || math.IsNaN(r.EndTime) || math.IsInf(r.StartTime, 0) || math.IsInf(r.EndTime, 0):
		return &ValidationError{Index: index, Range: r, Reason: "time is not a finite number"}
	case r.StartTime < 0:
		return &ValidationError{Index: index, Range: r, Reason: "start is negative"}
	case r.EndTime < r.StartTime:
		return &ValidationError{Index: index, Range: r, Reason: "end is before start"}
	}
	return nil
}

func validateEntries(entries []Entry) error {
	for i, e := range entries {
		if err := Validate(i, e.Range); err != nil {
			return err
		}
	}
	return nil
}

func validateCues(cues []captions.Cue) error {
	for i, c := range cues {
		if err := Validate(i, TimeRange{StartTime: c.StartTime, EndTime: c.EndTime}); err != nil {
			return err
		}
	}
	return nil
}
