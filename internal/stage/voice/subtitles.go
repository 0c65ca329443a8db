package voice

import (
	"fmt"
	"strings"
	"time"
)

// Cue is one subtitle entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Lines []string
}

// BuildCues lays narration fragments out on a word-rate timeline. One
// fragment becomes one or more cues; lines are wrapped at maxLineChars
// and a cue holds at most two lines.
func BuildCues(fragments []string, wordsPerMinute, maxLineChars int) []Cue {
	if wordsPerMinute <= 0 {
		wordsPerMinute = 150
	}
	secPerWord := 60.0 / float64(wordsPerMinute)

	var cues []Cue
	var cursor time.Duration
	idx := 1
	for _, fragment := range fragments {
		lines := wrapLines(fragment, maxLineChars)
		for i := 0; i < len(lines); i += 2 {
			chunk := lines[i:min(i+2, len(lines))]
			words := 0
			for _, l := range chunk {
				words += len(strings.Fields(l))
			}
			dur := time.Duration(float64(words) * secPerWord * float64(time.Second))
			if dur < time.Second {
				dur = time.Second
			}
			cues = append(cues, Cue{
				Index: idx,
				Start: cursor,
				End:   cursor + dur,
				Lines: chunk,
			})
			cursor += dur
			idx++
		}
	}
	return cues
}

// FormatSRT renders cues in SubRip format.
func FormatSRT(cues []Cue) string {
	var sb strings.Builder
	for _, cue := range cues {
		sb.WriteString(fmt.Sprintf("%d\n%s --> %s\n%s\n\n",
			cue.Index,
			srtTimestamp(cue.Start),
			srtTimestamp(cue.End),
			strings.Join(cue.Lines, "\n")))
	}
	return sb.String()
}

func srtTimestamp(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func wrapLines(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = 42
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+1+len(word) > maxChars {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
