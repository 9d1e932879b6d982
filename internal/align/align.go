// Package align merges the per-frame vision sequence and the
// per-segment speech+prosody sequence into one row per utterance.
package align

import (
	"math"
	"unicode/utf8"

	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

// Align produces one AlignedEntry per speech segment, in input order.
// For each segment it averages the valid vision frames whose time
// falls inside [start, end] inclusive, computes the speech rate in
// characters per second, and copies the segment's prosody metrics.
//
// Pure function: no side effects, deterministic, and an empty segment
// slice yields an empty (non-nil) result rather than an error.
func Align(frames []types.VisionFrame, segments []types.SpeechSegment) []types.AlignedEntry {
	// Filter error-marked frames once up front, not per segment.
	valid := make([]types.VisionFrame, 0, len(frames))
	for _, f := range frames {
		if f.Valid() {
			valid = append(valid, f)
		}
	}

	entries := make([]types.AlignedEntry, 0, len(segments))
	for _, seg := range segments {
		entries = append(entries, types.AlignedEntry{
			Start:         seg.Start,
			End:           seg.End,
			Text:          seg.Text,
			SpeechRateCPS: speechRate(seg),
			VisionAvg:     averageWindow(valid, seg.Start, seg.End),
			Prosody: types.Prosody{
				Jitter:  round3(sanitize(seg.Jitter)),
				Shimmer: round3(sanitize(seg.Shimmer)),
			},
		})
	}
	return entries
}

// speechRate is characters per second, guarded to 0 for degenerate
// zero or negative durations so it never divides by zero.
func speechRate(seg types.SpeechSegment) float64 {
	duration := seg.End - seg.Start
	if duration <= 0 {
		return 0
	}
	return round2(float64(utf8.RuneCountInString(seg.Text)) / duration)
}

// averageWindow computes the arithmetic mean of each signal over the
// frames inside [start, end]. When no valid frame falls in the window
// the no-face marker is returned, never a fabricated average.
func averageWindow(valid []types.VisionFrame, start, end float64) types.VisionAverage {
	var sum types.VisionSignals
	n := 0

	for _, f := range valid {
		if f.Time < start || f.Time > end {
			continue
		}
		sum.GazeH += f.GazeH
		sum.GazeV += f.GazeV
		sum.Smile += f.Smile
		sum.Frown += f.Frown
		sum.BrowUp += f.BrowUp
		sum.BrowDown += f.BrowDown
		sum.JawOpen += f.JawOpen
		sum.MouthOpen += f.MouthOpen
		sum.Squint += f.Squint
		n++
	}

	if n == 0 {
		return types.VisionAverage{Error: types.NoFaceMarker}
	}

	c := float64(n)
	return types.VisionAverage{
		VisionSignals: &types.VisionSignals{
			GazeH:     round3(sum.GazeH / c),
			GazeV:     round3(sum.GazeV / c),
			Smile:     round3(sum.Smile / c),
			Frown:     round3(sum.Frown / c),
			BrowUp:    round3(sum.BrowUp / c),
			BrowDown:  round3(sum.BrowDown / c),
			JawOpen:   round3(sum.JawOpen / c),
			MouthOpen: round3(sum.MouthOpen / c),
			Squint:    round3(sum.Squint / c),
		},
	}
}

// sanitize maps NaN to 0. A real instrument yields NaN when a slice
// is silent or too short to analyze.
func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
