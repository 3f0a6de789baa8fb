package session

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestInsertDialogueSplitsSpeakerLine(t *testing.T) {
	content := `Alex: "Hello there"`
	caret := len(`Alex: "Hello`)
	got, newCaret := InsertDialogue(content, &Selection{Start: caret, End: caret}, "Sarah", "Wait!")
	want := "Alex: \"Hello\"\nSarah: \"Wait!\"\nAlex: \" there\""
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
	if got[:newCaret] != "Alex: \"Hello\"\nSarah: \"Wait!\"" {
		t.Errorf("caret at %d: %q", newCaret, got[:newCaret])
	}
}

func TestInsertDialogueSplitKeepsSurroundingLines(t *testing.T) {
	content := "Intro.\nAlex: \"Hello there\"\nOutro."
	caret := len("Intro.\nAlex: \"Hello")
	got, _ := InsertDialogue(content, &Selection{Start: caret, End: caret}, "Sarah", "Wait!")
	want := "Intro.\nAlex: \"Hello\"\nSarah: \"Wait!\"\nAlex: \" there\"\nOutro."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestInsertDialogueSkipsEmptyHalves(t *testing.T) {
	content := `Alex: "Hello"`
	tests := []struct {
		name  string
		caret int
		want  string
	}{
		{"at speech start", len(`Alex: `), "Sarah: \"Wait!\"\nAlex: \"Hello\""},
		{"before closing quote", len(`Alex: "Hello`), "Alex: \"Hello\"\nSarah: \"Wait!\""},
		{"at line end", len(content), "Alex: \"Hello\"\nSarah: \"Wait!\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := InsertDialogue(content, &Selection{Start: tt.caret, End: tt.caret}, "Sarah", "Wait!")
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsertDialogueUnquotedSpeech(t *testing.T) {
	content := "Alex: hello there"
	caret := len("Alex: hello")
	got, _ := InsertDialogue(content, &Selection{Start: caret, End: caret}, "Sarah", "Wait!")
	want := "Alex: hello\nSarah: \"Wait!\"\nAlex:  there"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInsertDialogueNarrative(t *testing.T) {
	content := "The rain fell. The door opened."
	caret := len("The rain fell.")
	got, newCaret := InsertDialogue(content, &Selection{Start: caret, End: caret}, "Sarah", "Wait!")
	want := "The rain fell.\n\nSarah: \"Wait!\"\n\nThe door opened."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got[:newCaret] != "The rain fell.\n\nSarah: \"Wait!\"" {
		t.Errorf("caret prefix %q", got[:newCaret])
	}
}

func TestInsertDialoguePreservesSelection(t *testing.T) {
	content := "Before. Selected words. After."
	start := len("Before. ")
	end := start + len("Selected words.")
	got, _ := InsertDialogue(content, &Selection{Start: end, End: start}, "Sarah", "Wait!")
	want := "Before.\n\nSarah: \"Wait!\"\nSelected words.\n\nAfter."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInsertDialogueWithoutCaretAppends(t *testing.T) {
	got, _ := InsertDialogue("First paragraph.\n", nil, "Sarah", "Wait!")
	if want := "First paragraph.\n\nSarah: \"Wait!\""; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	got, caret := InsertDialogue("", nil, "Sarah", "Wait!")
	if got != `Sarah: "Wait!"` || caret != len(got) {
		t.Errorf("empty content: %q caret %d", got, caret)
	}
}

func TestInsertDialogueCaretInsideSpeakerName(t *testing.T) {
	tests := []struct {
		name    string
		content string
		caret   int
		want    string
	}{
		{"single line", `Alex: "Hello there"`, 2, "Sarah: \"Wait!\"\nAlex: \"Hello there\""},
		{"line start", `Alex: "Hello there"`, 0, "Sarah: \"Wait!\"\nAlex: \"Hello there\""},
		{"after intro", "Intro.\nAlex: \"Hi\"", len("Intro.\nAl"), "Intro.\nSarah: \"Wait!\"\nAlex: \"Hi\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, caret := InsertDialogue(tt.content, &Selection{Start: tt.caret, End: tt.caret}, "Sarah", "Wait!")
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			if !strings.HasSuffix(got[:caret], `Sarah: "Wait!"`) {
				t.Errorf("caret prefix %q", got[:caret])
			}
		})
	}
}

func TestInsertDialogueSnapsToRuneBoundary(t *testing.T) {
	content := "Café au lait"
	got, caret := InsertDialogue(content, &Selection{Start: 4, End: 4}, "Sarah", "Wait!")
	if !utf8.ValidString(got) {
		t.Fatalf("invalid UTF-8: %q", got)
	}
	if want := "Caf\n\nSarah: \"Wait!\"\n\né au lait"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !utf8.ValidString(got[:caret]) {
		t.Errorf("caret %d splits a character", caret)
	}
}

func TestSelectionNormalize(t *testing.T) {
	content := "añb"
	got := Selection{Start: 3, End: 2}.normalize(content)
	if got.Start != 1 || got.End != 3 {
		t.Errorf("got %+v, want {1 3}", got)
	}
	got = Selection{Start: -4, End: 99}.normalize(content)
	if got.Start != 0 || got.End != len(content) {
		t.Errorf("got %+v, want {0 %d}", got, len(content))
	}
}
