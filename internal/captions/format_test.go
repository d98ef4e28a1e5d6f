// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package captions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/videostove/internal/config"
)

func TestTimestamps(t *testing.T) {
	assert.Equal(t, "00:00:00,000", SRTTime(0))
	assert.Equal(t, "00:01:02,500", SRTTime(62.5))
	assert.Equal(t, "01:00:00,300", SRTTime(3600.3))
	assert.Equal(t, "0:00:02.50", ASSTime(2.5))
	assert.Equal(t, "1:02:03.04", ASSTime(3723.04))
}

func TestWriteSRT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.srt")
	require.NoError(t, WriteSRT(path, []Cue{{Start: 0, End: 1.2, Text: "Hi"}, {Start: 1.5, End: 2, Text: "there"}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:01,200\nHi\n\n2\n00:00:01,500 --> 00:00:02,000\nthere\n\n", string(data))
}

func TestForceStyle(t *testing.T) {
	assert.Empty(t, ForceStyle(Classic, config.CaptionStyleConfig{}))
	assert.Contains(t, ForceStyle(Boxed, config.CaptionStyleConfig{}), "BackColour=&H80000000&")
	assert.Equal(t, Custom, ParseStyle("Fancy"))
	assert.Equal(t, Karaoke, ParseStyle("Karaoke"))

	c := config.DefaultRenderConfig().Captions.Custom
	c.TextColor = "#FF8000"
	c.VerticalPosition = "top"
	c.HorizontalPosition = "right"
	style := ForceStyle(Custom, c)
	parts := strings.Split(style, ",")
	assert.Contains(t, parts, "FontName=Arial")
	assert.Contains(t, parts, "PrimaryColour=&H0080FF&")
	assert.Contains(t, parts, "Alignment=9")
	assert.Contains(t, parts, "Bold=1")
	assert.Contains(t, parts, "Shadow=2")
	assert.NotContains(t, parts, "BorderStyle=3")

	c.Background = true
	c.BackgroundOpacity = 0.5
	c.BackgroundColor = "#102030"
	parts = strings.Split(ForceStyle(Custom, c), ",")
	assert.Contains(t, parts, "BackColour=&H7F302010&")
	assert.Contains(t, parts, "BorderStyle=3")
}

func TestAlignment(t *testing.T) {
	got := map[string]int{}
	for _, v := range []string{"top", "middle", "bottom"} {
		for _, h := range []string{"left", "center", "right"} {
			got[v+"-"+h] = Alignment(v, h)
		}
	}
	want := map[string]int{
		"top-left": 7, "top-center": 8, "top-right": 9,
		"middle-left": 4, "middle-center": 5, "middle-right": 6,
		"bottom-left": 1, "bottom-center": 2, "bottom-right": 3,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("alignment mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, Alignment("", ""))
}

func TestAssColor(t *testing.T) {
	assert.Equal(t, "&H0000FF", assColor("#FF0000", "FFFFFF"))
	assert.Equal(t, "&HFFFFFF", assColor("not-a-color", "FFFFFF"))
	assert.Equal(t, "&HCCBBAA", assColor("aabbcc", "FFFFFF"))
}

func TestKaraoke(t *testing.T) {
	words := Words([]Segment{{Words: []Word{
		{Text: " Hi.", Start: 0, End: 0.4},
		{Text: "one", Start: 0.5, End: 0.7},
		{Text: "two", Start: 0.8, End: 1.0},
		{Text: "three", Start: 1.1, End: 1.3},
		{Text: "four", Start: 1.4, End: 1.6},
		{Text: "five", Start: 1.7, End: 1.9},
		{Text: "six", Start: 2.0, End: 2.2},
		{Text: " ", Start: 2.3, End: 2.4},
	}}})
	require.Len(t, words, 7)

	sentences := Sentences(words)
	require.Len(t, sentences, 3)
	assert.Len(t, sentences[0], 1, "terminal punctuation closes a line")
	assert.Len(t, sentences[1], 5, "five words close a line")
	assert.Len(t, sentences[2], 1)

	lines := KaraokeDialogues(words)
	require.Len(t, lines, 7)
	second := lines[2]
	assert.Equal(t, 0.8, second.Start)
	assert.Equal(t, 1.1, second.End, "ends when the next word starts")
	assert.Equal(t,
		`{\c&H00FFFF&}one{\c&HFFFFFF&} {\c&H00FFFF&}two{\c&HFFFFFF&} {\alpha&HFF&}three{\alpha&H00&} {\alpha&HFF&}four{\alpha&H00&} {\alpha&HFF&}five{\alpha&H00&}`,
		second.Text)
	assert.Equal(t, 1.9, lines[5].End, "last word of a line ends at its own end")
	assert.True(t, strings.HasPrefix(second.String(), "Dialogue: 0,0:00:00.80,0:00:01.10,Default,,0,0,0,,"))
}

func TestASSHeader(t *testing.T) {
	c := config.DefaultRenderConfig().Captions.Custom
	h := ASSHeader(c)
	assert.Contains(t, h, "Style: Default,Arial,24,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,1,0,0,0,100,100,0,0,1,2,0,2,20,20,25,1\n")
	assert.True(t, strings.HasSuffix(h, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n"))

	path := filepath.Join(t.TempDir(), "k.ass")
	require.NoError(t, WriteASS(path, h, []Dialogue{{Start: 0, End: 1, Text: "x"}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "Dialogue: 0,0:00:00.00,0:00:01.00,Default,,0,0,0,,x\n"))
}
