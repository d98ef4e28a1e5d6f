// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package captions

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestSingleLineShortSegment(t *testing.T) {
	segs := []Segment{
		{Text: " Hello there. ", Start: 0, End: 2},
		{Text: "a", Start: 2, End: 3},
		{Text: "General Kenobi.", Start: 2.05, End: 5},
	}
	got := BuildCues(segs, SingleLine, CueOptions{MinGap: 0.1})
	// The first cue ended 0.05s before the next; it is pulled back to keep 0.1s.
	want := []Cue{
		{Start: 0, End: 1.95, Text: "Hello there."},
		{Start: 2.05, End: 5, Text: "General Kenobi."},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("cues mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleLineWrapsProportionally(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog and keeps running far away"
	got := BuildCues([]Segment{{Text: text, Start: 10, End: 20}}, SingleLine, CueOptions{MaxCharsPerLine: 30})

	require.Len(t, got, 3)
	for _, c := range got {
		assert.LessOrEqual(t, len(c.Text), 30)
	}
	assert.Equal(t, 10.0, got[0].Start)
	assert.Equal(t, 20.0, got[len(got)-1].End, "last chunk ends at the segment end")
	for i := 1; i < len(got); i++ {
		assert.InDelta(t, got[i-1].End, got[i].Start, 1e-9, "chunks are contiguous")
	}
	total := 0
	for _, c := range got {
		total += len(c.Text)
	}
	assert.InDelta(t, 10*float64(len(got[0].Text))/float64(total), got[0].End-got[0].Start, 1e-9)
	assert.Equal(t, text, strings.Join([]string{got[0].Text, got[1].Text, got[2].Text}, " "))
}

func TestMultiLineGroups(t *testing.T) {
	segs := []Segment{
		{Text: "First part.", Start: 0, End: 1},
		{Text: "Second part.", Start: 1.5, End: 2.5},
		{Text: strings.Repeat("long ", 14), Start: 3, End: 6},
	}
	got := BuildCues(segs, MultiLine, CueOptions{})
	want := []Cue{
		{Start: 0, End: 3, Text: "First part. Second part."},
		{Start: 3, End: 6, Text: strings.TrimSpace(strings.Repeat("long ", 14))},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("cues mismatch (-want +got):\n%s", diff)
	}
}

func TestTypewriterAndSingleWords(t *testing.T) {
	segs := []Segment{{Text: "one two straße", Start: 0, End: 3}}

	tw := BuildCues(segs, Typewriter, CueOptions{})
	want := []Cue{
		{Start: 0, End: 1, Text: "one"},
		{Start: 1, End: 2, Text: "one two"},
		{Start: 2, End: 3, Text: "one two straße"},
	}
	if diff := cmp.Diff(want, tw, approx); diff != "" {
		t.Errorf("typewriter mismatch (-want +got):\n%s", diff)
	}

	sw := BuildCues(segs, SingleWords, CueOptions{})
	want = []Cue{
		{Start: 0, End: 1, Text: "ONE"},
		{Start: 1, End: 2, Text: "TWO"},
		{Start: 2, End: 3, Text: "STRASSE"},
	}
	if diff := cmp.Diff(want, sw, approx); diff != "" {
		t.Errorf("single words mismatch (-want +got):\n%s", diff)
	}
}

func TestRandomChunks(t *testing.T) {
	words := strings.Fields("a b c d e f g h i j")
	segs := []Segment{{Text: strings.Join(words, " "), Start: 0, End: 10}}

	got := BuildCues(segs, RandomChunks, CueOptions{Rand: rand.New(rand.NewPCG(7, 7))})
	var joined []string
	for _, c := range got {
		n := len(strings.Fields(c.Text))
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 3)
		joined = append(joined, c.Text)
	}
	assert.Equal(t, words, strings.Fields(strings.Join(joined, " ")))
	assert.InDelta(t, 10.0, got[len(got)-1].End, 1e-9)

	again := BuildCues(segs, RandomChunks, CueOptions{Rand: rand.New(rand.NewPCG(7, 7))})
	assert.Equal(t, got, again, "same seed, same chunks")
}

func TestLiveTiming(t *testing.T) {
	segs := []Segment{{
		Text: "alpha beta", Start: 0, End: 2,
		Words: []Word{{Text: "alpha", Start: 0.2, End: 0.8}, {Text: " beta", Start: 1.1, End: 1.6}},
	}}
	got := BuildCues(segs, LiveTiming, CueOptions{})
	want := []Cue{
		{Start: 0.2, End: 1.1, Text: "alpha"},
		{Start: 1.1, End: 2, Text: "alpha beta"},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("live mismatch (-want +got):\n%s", diff)
	}
}

func TestLiveTimingTwoLinesAndScroll(t *testing.T) {
	text := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen"
	got := BuildCues([]Segment{{Text: text, Start: 0, End: 14}}, LiveTiming, CueOptions{})
	require.Len(t, got, 14)
	for _, c := range got {
		lines := strings.Split(c.Text, "\n")
		assert.LessOrEqual(t, len(lines), 2, c.Text)
		assert.LessOrEqual(t, len(strings.ReplaceAll(c.Text, "\n", " ")), 2*liveLineChars)
	}
	last := got[len(got)-1].Text
	assert.True(t, strings.HasSuffix(last, "fourteen"))
	assert.NotContains(t, last, "one two", "oldest words scrolled out")
}

func TestEnforceMinGap(t *testing.T) {
	tests := []struct {
		name string
		in   []Cue
		want []Cue
	}{
		{
			name: "small gap widened",
			in:   []Cue{{Start: 0, End: 1.95}, {Start: 2, End: 3}},
			want: []Cue{{Start: 0, End: 1.9}, {Start: 2, End: 3}},
		},
		{
			name: "touching cues untouched",
			in:   []Cue{{Start: 0, End: 2}, {Start: 2, End: 3}},
			want: []Cue{{Start: 0, End: 2}, {Start: 2, End: 3}},
		},
		{
			name: "enough gap untouched",
			in:   []Cue{{Start: 0, End: 1.5}, {Start: 2, End: 3}},
			want: []Cue{{Start: 0, End: 1.5}, {Start: 2, End: 3}},
		},
		{
			name: "never ends before start",
			in:   []Cue{{Start: 1.95, End: 1.97}, {Start: 2, End: 3}},
			want: []Cue{{Start: 1.95, End: 1.97}, {Start: 2, End: 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnforceMinGap(tt.in, 0.1)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
			for i, c := range got {
				assert.Greater(t, c.End, c.Start)
				assert.Equal(t, tt.in[i].Start, c.Start, "starts never move")
			}
		})
	}
}

func TestParsePacing(t *testing.T) {
	p, err := ParsePacing("Single_Words")
	require.NoError(t, err)
	assert.Equal(t, SingleWords, p)
	p, err = ParsePacing("")
	require.NoError(t, err)
	assert.Equal(t, SingleLine, p)
	_, err = ParsePacing("teleprompter")
	assert.Error(t, err)
	assert.True(t, LiveTiming.NeedsWords())
}
