// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package captions

import "strings"

const (
	karaokeSentenceWords = 5
	spokenOpen           = `{\c&H00FFFF&}`
	spokenClose          = `{\c&HFFFFFF&}`
	unspokenOpen         = `{\alpha&HFF&}`
	unspokenClose        = `{\alpha&H00&}`
)

// Words flattens the timed words of all segments.
func Words(segments []Segment) []Word {
	var words []Word
	for _, s := range segments {
		for _, w := range s.Words {
			if t := strings.TrimSpace(w.Text); t != "" {
				words = append(words, Word{Text: t, Start: w.Start, End: w.End})
			}
		}
	}
	return words
}

// Sentences groups words into karaoke lines. A line ends after
// terminal punctuation or at five words.
func Sentences(words []Word) [][]Word {
	var (
		out [][]Word
		cur []Word
	)
	for _, w := range words {
		cur = append(cur, w)
		if len(cur) >= karaokeSentenceWords || strings.HasSuffix(w.Text, ".") ||
			strings.HasSuffix(w.Text, "!") || strings.HasSuffix(w.Text, "?") {
			out = append(out, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// KaraokeDialogues emits one event per word. Words spoken so far are
// highlighted; later words are present but transparent so the line does
// not reflow. Each event lasts until the next word starts.
func KaraokeDialogues(words []Word) []Dialogue {
	var lines []Dialogue
	for _, sentence := range Sentences(words) {
		for i, w := range sentence {
			end := w.End
			if i+1 < len(sentence) {
				end = sentence[i+1].Start
			}
			parts := make([]string, len(sentence))
			for k, other := range sentence {
				if k <= i {
					parts[k] = spokenOpen + other.Text + spokenClose
				} else {
					parts[k] = unspokenOpen + other.Text + unspokenClose
				}
			}
			lines = append(lines, Dialogue{Start: w.Start, End: end, Text: strings.Join(parts, " ")})
		}
	}
	return lines
}
