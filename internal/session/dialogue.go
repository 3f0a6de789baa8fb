package session

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// speakerPrefix matches the "<speaker>: " lead of a dialogue line.
var speakerPrefix = regexp.MustCompile(`^[^:\n]{1,80}: `)

// Selection is a byte range in a tab's content. Start == End is a caret.
// Offsets that fall inside a multi-byte character move back to its first
// byte.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Selection) normalize(content string) Selection {
	if s.Start > s.End {
		s.Start, s.End = s.End, s.Start
	}
	s.Start = runeBoundary(content, s.Start)
	s.End = runeBoundary(content, s.End)
	return s
}

func runeBoundary(content string, i int) int {
	i = min(max(i, 0), len(content))
	for i > 0 && i < len(content) && !utf8.RuneStart(content[i]) {
		i--
	}
	return i
}

// DialogueLine formats a dialogue line.
func DialogueLine(speaker, text string) string {
	return speaker + `: "` + text + `"`
}

// InsertDialogue places a dialogue line for speaker into content and returns
// the new content with the caret placed after the inserted text.
//
// A caret inside the speech of a "Speaker: ..." line splits that line
// around the new one, and a caret inside the speaker prefix puts the new
// line directly above it. Otherwise the dialogue becomes its own paragraph and a
// selected range follows it on the next line. A nil selection appends.
func InsertDialogue(content string, sel *Selection, speaker, text string) (string, int) {
	line := DialogueLine(speaker, text)
	if content == "" {
		return line, len(line)
	}
	s := Selection{Start: len(content), End: len(content)}
	if sel != nil {
		s = sel.normalize(content)
	}

	if s.Start == s.End {
		if out, caret, ok := splitSpeakerLine(content, s.Start, line); ok {
			return out, caret
		}
	}
	return insertParagraph(content, s, line)
}

func splitSpeakerLine(content string, caret int, line string) (string, int, bool) {
	lineStart := strings.LastIndexByte(content[:caret], '\n') + 1
	lineEnd := len(content)
	if i := strings.IndexByte(content[caret:], '\n'); i >= 0 {
		lineEnd = caret + i
	}
	current := content[lineStart:lineEnd]
	m := speakerPrefix.FindStringIndex(current)
	if m == nil {
		return "", 0, false
	}
	if caret-lineStart < m[1] {
		out := content[:lineStart] + line + "\n" + content[lineStart:]
		return out, lineStart + len(line), true
	}

	prefix, speech := current[:m[1]], current[m[1]:]
	k := caret - lineStart - m[1]
	before, after := speech[:k], speech[k:]
	if strings.HasPrefix(speech, `"`) {
		if !strings.HasSuffix(before, `"`) {
			before += `"`
		}
		if !strings.HasPrefix(after, `"`) {
			after = `"` + after
		}
	}

	var parts []string
	if strings.Trim(before, `" `) != "" {
		parts = append(parts, prefix+before)
	}
	parts = append(parts, line)
	newCaret := lineStart + len(strings.Join(parts, "\n"))
	if strings.Trim(after, `" `) != "" {
		parts = append(parts, prefix+after)
	}
	return content[:lineStart] + strings.Join(parts, "\n") + content[lineEnd:], newCaret, true
}

func insertParagraph(content string, s Selection, line string) (string, int) {
	before := strings.TrimRight(content[:s.Start], " \t")
	selected := content[s.Start:s.End]
	after := strings.TrimLeft(content[s.End:], " \t")

	var b strings.Builder
	b.WriteString(before)
	if before != "" {
		b.WriteString(paragraphGap(strings.HasSuffix(before, "\n\n"), strings.HasSuffix(before, "\n")))
	}
	b.WriteString(line)
	if selected != "" {
		b.WriteByte('\n')
		b.WriteString(selected)
	}
	caret := b.Len()
	if after != "" {
		b.WriteString(paragraphGap(strings.HasPrefix(after, "\n\n"), strings.HasPrefix(after, "\n")))
		b.WriteString(after)
	}
	return b.String(), caret
}

// paragraphGap returns the newlines needed to reach a blank-line boundary.
func paragraphGap(double, single bool) string {
	switch {
	case double:
		return ""
	case single:
		return "\n"
	}
	return "\n\n"
}
