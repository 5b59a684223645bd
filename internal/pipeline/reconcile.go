package pipeline

import (
	"strings"

	"github.com/lexiqai/narration-pipeline/internal/stt"
)

// SegmentTranscript pairs a provider result with the duration the segmenter
// declared for that segment.
type SegmentTranscript struct {
	Index    int
	Duration float64
	Result   *stt.SegmentResult
}

// Timeline is the source-relative transcript of a whole run.
type Timeline struct {
	FullText      string     `json:"fullText"`
	TotalDuration float64    `json:"totalDuration"`
	Words         []stt.Word `json:"words"`
	// Repairs counts words whose timestamps were clamped to keep the
	// timeline non-decreasing.
	Repairs int `json:"repairs,omitempty"`
}

// reconcileState is the accumulator threaded through the fold.
type reconcileState struct {
	offset    float64
	lastStart float64
	texts     []string
	words     []stt.Word
	repairs   int
}

// Reconcile folds ordered segment transcripts into one timeline. Each word is
// shifted by the sum of the declared durations before it; the offset then
// advances by the segment's declared duration whether or not it had words.
// A shifted word that would start before its segment or before the previous
// word is clamped forward, and an end before its start is lifted to the start.
func Reconcile(segments []SegmentTranscript) Timeline {
	state := reconcileState{words: []stt.Word{}}
	for _, seg := range segments {
		state = reconcileSegment(state, seg)
	}
	return Timeline{
		FullText:      strings.Join(state.texts, " "),
		TotalDuration: state.offset,
		Words:         state.words,
		Repairs:       state.repairs,
	}
}

func reconcileSegment(state reconcileState, seg SegmentTranscript) reconcileState {
	if seg.Result != nil {
		if text := strings.TrimSpace(seg.Result.Text); text != "" {
			state.texts = append(state.texts, text)
		}

		floor := state.offset
		if state.lastStart > floor {
			floor = state.lastStart
		}
		for _, w := range seg.Result.Words {
			shifted := stt.Word{
				Text:      w.Text,
				StartTime: w.StartTime + state.offset,
				EndTime:   w.EndTime + state.offset,
			}
			repaired := false
			if shifted.StartTime < floor {
				shifted.StartTime = floor
				repaired = true
			}
			if shifted.EndTime < shifted.StartTime {
				shifted.EndTime = shifted.StartTime
				repaired = true
			}
			if repaired {
				state.repairs++
			}
			floor = shifted.StartTime
			state.lastStart = shifted.StartTime
			state.words = append(state.words, shifted)
		}
	}
	state.offset += seg.Duration
	return state
}
