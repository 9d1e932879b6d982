package criteria

import (
	"testing"

	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

func TestSaveAndLoadRoundtrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	rubric := []types.Criterion{
		{Name: "Eye contact", Score: 25, Description: "front-facing gaze share"},
		{Name: "Delivery", Score: 50, Description: "vocal stability"},
	}

	if err := store.Save("Spring Contest 2026", rubric); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load("Spring Contest 2026")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 || loaded[0].Name != "Eye contact" || loaded[1].Score != 50 {
		t.Errorf("roundtrip mismatch: %+v", loaded)
	}
}

func TestLoadMissingRubricReturnsEmpty(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load("never-saved")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty rubric, got %+v", loaded)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Spring Contest", "Spring_Contest"},
		{`a/b\c:d*e?f"g<h>i|j`, "abcdefghij"},
		{"", "default_criteria"},
		{`///`, "default_criteria"},
	}

	for _, tc := range cases {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
