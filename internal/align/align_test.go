package align

import (
	"math"
	"reflect"
	"testing"

	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

func frameAt(time, smile float64) types.VisionFrame {
	return types.VisionFrame{
		Time:          time,
		VisionSignals: &types.VisionSignals{Smile: smile},
	}
}

func TestAlignOneEntryPerSegmentInOrder(t *testing.T) {
	frames := []types.VisionFrame{frameAt(0, 0.1), frameAt(1, 0.3), frameAt(2, 0.5)}
	segments := []types.SpeechSegment{
		{Start: 0, End: 1, Text: "first"},
		{Start: 1, End: 2, Text: "second"},
		{Start: 2, End: 3, Text: "third"},
	}

	entries := Align(frames, segments)

	if len(entries) != len(segments) {
		t.Fatalf("expected %d entries, got %d", len(segments), len(entries))
	}
	for i, entry := range entries {
		if entry.Text != segments[i].Text {
			t.Errorf("entry %d out of order: got text %q, want %q", i, entry.Text, segments[i].Text)
		}
	}
}

func TestAlignExampleFromContract(t *testing.T) {
	frames := []types.VisionFrame{frameAt(0, 0.1), frameAt(1, 0.3)}
	segments := []types.SpeechSegment{
		{Start: 0, End: 1, Text: "hi", Jitter: 1.0, Shimmer: 2.0},
	}

	entries := Align(frames, segments)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.VisionAvg.VisionSignals == nil {
		t.Fatal("expected averaged vision signals, got none")
	}
	if entry.VisionAvg.Smile != 0.2 {
		t.Errorf("smile average = %v, want 0.2", entry.VisionAvg.Smile)
	}
	if entry.SpeechRateCPS != 2.0 {
		t.Errorf("speech rate = %v, want 2.0", entry.SpeechRateCPS)
	}
	if entry.Prosody.Jitter != 1.0 || entry.Prosody.Shimmer != 2.0 {
		t.Errorf("prosody = %+v, want jitter 1.0 shimmer 2.0", entry.Prosody)
	}
}

func TestAlignEmptySegments(t *testing.T) {
	frames := []types.VisionFrame{frameAt(0, 0.5)}

	entries := Align(frames, nil)

	if entries == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestAlignNoFrameInWindow(t *testing.T) {
	frames := []types.VisionFrame{frameAt(0, 0.5), frameAt(10, 0.5)}
	segments := []types.SpeechSegment{{Start: 3, End: 5, Text: "mid"}}

	entries := Align(frames, segments)

	if entries[0].VisionAvg.Error != types.NoFaceMarker {
		t.Errorf("expected no-face marker, got %+v", entries[0].VisionAvg)
	}
	if entries[0].VisionAvg.VisionSignals != nil {
		t.Error("no frame in window must not fabricate an average")
	}
}

func TestAlignAllFramesInWindowErrorMarked(t *testing.T) {
	frames := []types.VisionFrame{
		{Time: 0.5, Error: "no face detected"},
		{Time: 0.7, Error: "unreadable image file"},
	}
	segments := []types.SpeechSegment{{Start: 0, End: 1, Text: "hi"}}

	entries := Align(frames, segments)

	if entries[0].VisionAvg.Error != types.NoFaceMarker {
		t.Errorf("expected no-face marker when every frame is error-marked, got %+v", entries[0].VisionAvg)
	}
}

func TestAlignWindowIsInclusive(t *testing.T) {
	frames := []types.VisionFrame{frameAt(1, 0.2), frameAt(2, 0.4)}
	segments := []types.SpeechSegment{{Start: 1, End: 2, Text: "ab"}}

	entries := Align(frames, segments)

	// Both boundary frames must contribute: (0.2+0.4)/2 = 0.3.
	if entries[0].VisionAvg.Smile != 0.3 {
		t.Errorf("smile = %v, want 0.3 (inclusive window)", entries[0].VisionAvg.Smile)
	}
}

func TestSpeechRateGuardsDegenerateDurations(t *testing.T) {
	cases := []struct {
		name string
		seg  types.SpeechSegment
		want float64
	}{
		{"zero duration", types.SpeechSegment{Start: 1, End: 1, Text: "hello"}, 0},
		{"negative duration", types.SpeechSegment{Start: 2, End: 1, Text: "hello"}, 0},
		{"normal", types.SpeechSegment{Start: 0, End: 2, Text: "abcd"}, 2},
		{"empty text", types.SpeechSegment{Start: 0, End: 2, Text: ""}, 0},
		{"multibyte runes", types.SpeechSegment{Start: 0, End: 1, Text: "안녕"}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries := Align(nil, []types.SpeechSegment{tc.seg})
			got := entries[0].SpeechRateCPS
			if got != tc.want {
				t.Errorf("speech rate = %v, want %v", got, tc.want)
			}
			if math.IsInf(got, 0) || math.IsNaN(got) {
				t.Errorf("speech rate must be finite, got %v", got)
			}
		})
	}
}

func TestProsodyNaNMapsToZero(t *testing.T) {
	segments := []types.SpeechSegment{
		{Start: 0, End: 1, Text: "x", Jitter: math.NaN(), Shimmer: math.NaN()},
	}

	entries := Align(nil, segments)

	if entries[0].Prosody.Jitter != 0 || entries[0].Prosody.Shimmer != 0 {
		t.Errorf("NaN prosody must map to 0, got %+v", entries[0].Prosody)
	}
}

func TestAlignRoundsAverages(t *testing.T) {
	frames := []types.VisionFrame{frameAt(0, 0.1), frameAt(0.2, 0.2), frameAt(0.4, 0.2)}
	segments := []types.SpeechSegment{{Start: 0, End: 1, Text: "x"}}

	entries := Align(frames, segments)

	// (0.1+0.2+0.2)/3 = 0.16666... -> 0.167
	if entries[0].VisionAvg.Smile != 0.167 {
		t.Errorf("smile = %v, want 0.167 (rounded to 3 decimals)", entries[0].VisionAvg.Smile)
	}
}

func TestAlignIsIdempotent(t *testing.T) {
	frames := []types.VisionFrame{
		frameAt(0, 0.1),
		{Time: 0.2, Error: "no face detected"},
		frameAt(0.4, 0.3),
	}
	segments := []types.SpeechSegment{
		{Start: 0, End: 0.5, Text: "hello", Jitter: 1.2, Shimmer: 3.4},
		{Start: 0.5, End: 0.5, Text: ""},
	}

	first := Align(frames, segments)
	second := Align(frames, segments)

	if !reflect.DeepEqual(first, second) {
		t.Error("align is not deterministic for identical inputs")
	}
}
