// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package captions turns a transcript into timed cues and burns them into
// a finished video.
package captions

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Word is one transcribed word with its timing in seconds.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is one transcribed phrase. Words is empty unless word timing was
// requested.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words,omitempty"`
}

// Cue is one subtitle event.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Pacing decides how segments are cut into cues.
type Pacing string

const (
	SingleLine   Pacing = "single"
	MultiLine    Pacing = "multi"
	Typewriter   Pacing = "typewriter"
	SingleWords  Pacing = "single_words"
	RandomChunks Pacing = "random"
	LiveTiming   Pacing = "live"
)

// ParsePacing validates a pacing name.
func ParsePacing(s string) (Pacing, error) {
	p := Pacing(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case SingleLine, MultiLine, Typewriter, SingleWords, RandomChunks, LiveTiming:
		return p, nil
	case "":
		return SingleLine, nil
	}
	return "", fmt.Errorf("unknown caption pacing %q", s)
}

// NeedsWords reports whether the pacing uses word timestamps.
func (p Pacing) NeedsWords() bool { return p == LiveTiming }

const (
	DefaultMaxChars = 45
	DefaultMinGap   = 0.1
	multiLineChars  = 80
	liveLineChars   = 35
)

// CueOptions tune cue building.
type CueOptions struct {
	MaxCharsPerLine int
	MinGap          float64
	// Rand drives RandomChunks. Nil uses a fixed seed.
	Rand *rand.Rand
}

// BuildCues applies pacing to segments. Single and multi line cues also get
// the minimum gap enforced.
func BuildCues(segments []Segment, pacing Pacing, opts CueOptions) []Cue {
	if opts.MaxCharsPerLine <= 0 {
		opts.MaxCharsPerLine = DefaultMaxChars
	}
	switch pacing {
	case MultiLine:
		return EnforceMinGap(multiLineCues(segments), opts.MinGap)
	case Typewriter:
		return typewriterCues(segments)
	case SingleWords:
		return singleWordCues(segments)
	case RandomChunks:
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewPCG(1, 1))
		}
		return randomChunkCues(segments, rng)
	case LiveTiming:
		return liveTimingCues(segments)
	}
	return EnforceMinGap(singleLineCues(segments, opts.MaxCharsPerLine), opts.MinGap)
}

// wrap groups words greedily into lines of at most limit characters. A word
// longer than limit gets a line of its own.
func wrap(words []string, limit int) []string {
	var (
		lines []string
		cur   []string
		n     int
	)
	for _, w := range words {
		add := len(w)
		if len(cur) > 0 {
			add++
		}
		if n+add <= limit || len(cur) == 0 {
			cur = append(cur, w)
			n += add
			continue
		}
		lines = append(lines, strings.Join(cur, " "))
		cur, n = []string{w}, len(w)
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}

func singleLineCues(segments []Segment, limit int) []Cue {
	var cues []Cue
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if len(text) < 2 {
			continue
		}
		if len(text) <= limit {
			cues = append(cues, Cue{Start: s.Start, End: s.End, Text: text})
			continue
		}
		chunks := wrap(strings.Fields(text), limit)
		total := 0
		for _, c := range chunks {
			total += len(c)
		}
		span := s.End - s.Start
		start := s.Start
		for i, c := range chunks {
			end := min(start+span*float64(len(c))/float64(total), s.End)
			if i == len(chunks)-1 {
				end = s.End
			}
			cues = append(cues, Cue{Start: start, End: end, Text: c})
			start = end
		}
	}
	return cues
}

// multiLineCues accumulates segments while the text stays under 80
// characters. A group ends where the next one starts.
func multiLineCues(segments []Segment) []Cue {
	var (
		cues  []Cue
		text  string
		start float64
	)
	for _, s := range segments {
		t := strings.TrimSpace(s.Text)
		switch {
		case t == "":
			continue
		case text == "":
			text, start = t, s.Start
		case len(text)+len(t)+1 < multiLineChars:
			text += " " + t
		default:
			cues = append(cues, Cue{Start: start, End: s.Start, Text: text})
			text, start = t, s.Start
		}
	}
	if text != "" {
		cues = append(cues, Cue{Start: start, End: segments[len(segments)-1].End, Text: text})
	}
	return cues
}

// evenly splits a segment into n equal slices and calls fn for each.
func evenly(s Segment, n int, fn func(i int, start, end float64)) {
	step := (s.End - s.Start) / float64(n)
	for i := range n {
		fn(i, s.Start+float64(i)*step, s.Start+float64(i+1)*step)
	}
}

func typewriterCues(segments []Segment) []Cue {
	var cues []Cue
	for _, s := range segments {
		words := strings.Fields(s.Text)
		if len(words) == 0 {
			continue
		}
		evenly(s, len(words), func(i int, start, end float64) {
			cues = append(cues, Cue{Start: start, End: end, Text: strings.Join(words[:i+1], " ")})
		})
	}
	return cues
}

func singleWordCues(segments []Segment) []Cue {
	upper := cases.Upper(language.Und)
	var cues []Cue
	for _, s := range segments {
		words := strings.Fields(s.Text)
		if len(words) == 0 {
			continue
		}
		evenly(s, len(words), func(i int, start, end float64) {
			cues = append(cues, Cue{Start: start, End: end, Text: upper.String(words[i])})
		})
	}
	return cues
}

func randomChunkCues(segments []Segment, rng *rand.Rand) []Cue {
	var cues []Cue
	for _, s := range segments {
		words := strings.Fields(s.Text)
		var chunks []string
		for i := 0; i < len(words); {
			n := min(1+rng.IntN(3), len(words)-i)
			chunks = append(chunks, strings.Join(words[i:i+n], " "))
			i += n
		}
		if len(chunks) == 0 {
			continue
		}
		evenly(s, len(chunks), func(i int, start, end float64) {
			cues = append(cues, Cue{Start: start, End: end, Text: chunks[i]})
		})
	}
	return cues
}

// liveTimingCues shows words as they are spoken, on at most two lines of
// 35 characters. Older words scroll out. Segments without word timing are
// divided evenly.
func liveTimingCues(segments []Segment) []Cue {
	var cues []Cue
	for _, s := range segments {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		words := s.Words
		if len(words) == 0 {
			fields := strings.Fields(s.Text)
			evenly(s, len(fields), func(i int, start, end float64) {
				words = append(words, Word{Text: fields[i], Start: start, End: end})
			})
		}
		var shown []string
		for i, w := range words {
			text := strings.TrimSpace(w.Text)
			if text == "" {
				continue
			}
			shown = append(shown, text)
			end := s.End
			if i+1 < len(words) {
				end = words[i+1].Start
			}
			var display string
			display, shown = liveLines(shown)
			cues = append(cues, Cue{Start: w.Start, End: end, Text: display})
		}
	}
	return cues
}

// liveLines lays shown out on up to two lines, dropping the oldest words
// when they no longer fit. It returns the text and the retained words.
func liveLines(shown []string) (string, []string) {
	text := strings.Join(shown, " ")
	if len(text) <= liveLineChars {
		return text, shown
	}
	split := func(ws []string) (string, string) {
		mid := len(ws) / 2
		return strings.Join(ws[:mid], " "), strings.Join(ws[mid:], " ")
	}
	line1, line2 := split(shown)
	if len(line2) > liveLineChars {
		for len(shown) > 1 && len(strings.Join(shown, " ")) > 2*liveLineChars {
			shown = shown[1:]
		}
		if len(shown) > 1 {
			line1, line2 = split(shown)
		} else {
			line1, line2 = shown[0], ""
		}
	}
	if line1 == "" || line2 == "" {
		return strings.Join(shown, " "), shown
	}
	return line1 + "\n" + line2, shown
}

// EnforceMinGap shortens a cue that ends less than gap before the next one
// starts. Only the earlier end moves, and never to or before its start.
// Touching or overlapping cues are left alone.
func EnforceMinGap(cues []Cue, gap float64) []Cue {
	if gap <= 0 {
		return cues
	}
	for i := 0; i+1 < len(cues); i++ {
		avail := cues[i+1].Start - cues[i].End
		if avail <= 0 || avail >= gap {
			continue
		}
		if end := cues[i+1].Start - gap; end > cues[i].Start {
			cues[i].End = end
		}
	}
	return cues
}
