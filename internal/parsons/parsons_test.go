package parsons_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-stagecms/internal/parsons"
)

func TestParseGroupsContinuedLines(t *testing.T) {
	text := "def greet(name): // entry #continue\n  print(name) // say it\n\n  return 1 #distractor\nreturn name"
	got := parsons.Parse(text)
	want := []parsons.Fragment{
		{Code: "def greet(name):\nprint(name)", Comment: "entry say it", Indent: 0},
		{Code: "return 1", Distractor: true, Indent: 1},
		{Code: "return name"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected fragments (-want +got):\n%s", diff)
	}
}

func TestParseDistractorOnContinuedFragment(t *testing.T) {
	got := parsons.Parse("a = 1 #continue\nb = 2 #distractor")
	if len(got) != 1 || !got[0].Distractor || got[0].Code != "a = 1\nb = 2" {
		t.Fatalf("unexpected fragments %+v", got)
	}
}

func TestParseBlankInput(t *testing.T) {
	if got := parsons.Parse("  \n\n"); len(got) != 0 {
		t.Fatalf("expected no fragments got %+v", got)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	inputs := []string{
		"for i in range(3): #continue\n  print(i)",
		"    x = 1 // setup\n\ny = 2 #distractor",
		"if ok: // check #continue\n  go() // run #continue\n  stop() #distractor",
		"single",
	}
	for _, in := range inputs {
		normalized := parsons.Normalize(in)
		if again := parsons.Format(parsons.Parse(normalized)); again != normalized {
			t.Fatalf("round trip mismatch for %q:\nfirst  %q\nsecond %q", in, normalized, again)
		}
		if diff := cmp.Diff(parsons.Parse(in), parsons.Parse(normalized)); diff != "" {
			t.Fatalf("fragments changed after normalization (-orig +norm):\n%s", diff)
		}
	}
}

func TestFormatCanonicalText(t *testing.T) {
	got := parsons.Format([]parsons.Fragment{
		{Code: "while True:\nbreak", Comment: "loop", Indent: 1},
		{Code: "pass", Distractor: true},
	})
	want := "  while True: // loop #continue\nbreak\n\npass #distractor"
	if got != want {
		t.Fatalf("expected %q got %q", want, got)
	}
}

func TestEditorOperations(t *testing.T) {
	base := parsons.Parse("a\n\nb\n\nc")

	moved := parsons.Move(base, 0, 2)
	if moved[0].Code != "b" || moved[2].Code != "a" || base[0].Code != "a" {
		t.Fatalf("unexpected move result %+v (base %+v)", moved, base)
	}

	shifted := parsons.Shift(base, 1, -3)
	if shifted[1].Indent != 0 {
		t.Fatalf("expected indent clamped at zero got %d", shifted[1].Indent)
	}
	shifted = parsons.Shift(shifted, 1, 2)
	if shifted[1].Indent != 2 {
		t.Fatalf("expected indent 2 got %d", shifted[1].Indent)
	}

	merged := parsons.MergeWithNext(parsons.ToggleDistractor(base, 1), 0)
	if len(merged) != 2 || merged[0].Code != "a\nb" || !merged[0].Distractor {
		t.Fatalf("unexpected merge %+v", merged)
	}

	split := parsons.Split(merged, 0, 1)
	if len(split) != 3 || split[0].Code != "a" || split[1].Code != "b" {
		t.Fatalf("unexpected split %+v", split)
	}

	removed := parsons.Remove(base, 1)
	if len(removed) != 2 || removed[1].Code != "c" {
		t.Fatalf("unexpected remove %+v", removed)
	}

	inserted := parsons.Insert(base, 1, parsons.Fragment{Code: "x"})
	if len(inserted) != 4 || inserted[1].Code != "x" || inserted[2].Code != "b" {
		t.Fatalf("unexpected insert %+v", inserted)
	}
}
