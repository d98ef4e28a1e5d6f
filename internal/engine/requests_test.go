// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joined(r Request) string { return strings.Join(r.Args(), " ") }

func TestSeconds(t *testing.T) {
	tests := map[float64]string{
		20:          "20",
		7.5:         "7.5",
		0.6:         "0.6",
		0.1 + 0.2:   "0.3",
		-0.0:        "0",
		12.34567:    "12.346",
		1.0 / 3.0:   "0.333",
		3600.000001: "3600",
	}
	for in, want := range tests {
		assert.Equal(t, want, Seconds(in), "Seconds(%v)", in)
	}
}

func TestAudioTranscodeArgs(t *testing.T) {
	r := AudioTranscodeRequest{Input: "/in/main.wav", Output: "/w/audio.mp3"}
	assert.Equal(t, "-i /in/main.wav -c:a libmp3lame -b:a 320k -ar 44100 /w/audio.mp3", joined(r))
	assert.Equal(t, "audio_transcode", r.Kind())
}

func TestMotionFilters(t *testing.T) {
	tests := []struct {
		name   string
		motion Motion
		d      float64
		want   []string
	}{
		{"zoom in", Motion{Kind: MotionZoomIn}, 8, []string{"zoompan=z='min(zoom+0.0015,1.2)'", ":d=200:fps=25:s=3840x2160", "scale=3840:2160"}},
		{"zoom out", Motion{Kind: MotionZoomOut}, 4, []string{"zoompan=z='max(zoom-0.0015,1.0)'", ":d=100:"}},
		{"pan right", Motion{Kind: MotionPanRight}, 8, []string{"scale=2304:-1", "x='(iw-ow)*t/8'", "y='(ih-oh)/2'"}},
		{"pan left", Motion{Kind: MotionPanLeft}, 8, []string{"x='(iw-ow)*(1-t/8)'"}},
		{"pan down", Motion{Kind: MotionPanDown}, 8, []string{"x='(iw-ow)/2'", "y='(ih-oh)*t/8'"}},
		{"pan up", Motion{Kind: MotionPanUp}, 8, []string{"y='(ih-oh)*(1-t/8)'"}},
		{"none", Motion{Kind: MotionNone}, 8, []string{"force_original_aspect_ratio=increase,crop=1920:1080,setsar=1"}},
		{"extended in", Motion{Kind: MotionExtendedZoom, Direction: ZoomIn, AmountPercent: 30}, 8, []string{"min(zoom+0.0015,1.3)"}},
		{"extended out", Motion{Kind: MotionExtendedZoom, Direction: ZoomOut, AmountPercent: 30}, 8, []string{"max(zoom-0.0015,1.0)"}},
		{"extended in_out", Motion{Kind: MotionExtendedZoom, Direction: ZoomInOut, AmountPercent: 30}, 8, []string{"if(lt(on,100),min(1+0.003*on,1.3),max(1.3-0.003*(on-100),1))"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := MotionFilter(tt.motion, tt.d)
			for _, w := range tt.want {
				assert.Contains(t, f, w)
			}
			assert.True(t, strings.HasSuffix(f, "setsar=1,format=yuv420p"), f)
		})
	}
}

func TestMotionRequestFades(t *testing.T) {
	r := MotionRequest{Image: "a.jpg", Output: "c.mp4", Duration: 8, Motion: Motion{Kind: MotionZoomIn}, FadeIn: true, FadeOut: true, Encoder: CPUEncoder(22, "fast")}
	f := r.Filter()
	assert.True(t, strings.HasSuffix(f, ",fade=t=in:st=0:d=0.5,fade=t=out:st=7.5:d=0.5"), f)

	args := joined(r)
	assert.True(t, strings.HasPrefix(args, "-loop 1 -i a.jpg -vf "))
	assert.Contains(t, args, " -t 8 -r 25 -c:v libx264 -preset fast -crf 22 -pix_fmt yuv420p -an c.mp4")

	r.FadeIn, r.FadeOut = false, false
	assert.NotContains(t, r.Filter(), "fade=")
}

func TestNormalizeVideoArgs(t *testing.T) {
	r := NormalizeVideoRequest{Input: "v.mov", Output: "n.mp4", SourceDuration: 10, FadeIn: true, FadeOut: true}
	assert.Equal(t, "-i v.mov -vf scale=1920:1080:force_original_aspect_ratio=increase,crop=1920:1080,fade=t=in:st=0:d=0.5,fade=t=out:st=9.5:d=0.5 -r 25 -c:v libx264 -preset ultrafast -crf 25 -pix_fmt yuv420p -an n.mp4", joined(r))

	r = NormalizeVideoRequest{Input: "v.mov", Output: "n.mp4", SourceDuration: 10, FadeOut: true, Trim: 6}
	assert.Contains(t, joined(r), "fade=t=out:st=5.5:d=0.5")
	assert.Contains(t, joined(r), "-an -t 6 n.mp4")
}

func TestConcatArgs(t *testing.T) {
	r := ConcatRequest{ListPath: "l.txt", Output: "o.mp4"}
	assert.Equal(t, "-f concat -safe 0 -i l.txt -c copy o.mp4", joined(r))
	r.Duration = 25
	r.Format = "mp4"
	assert.Equal(t, "-f concat -safe 0 -i l.txt -t 25 -c copy -f mp4 o.mp4", joined(r))

	f := ConcatFilterRequest{Inputs: []string{"a", "b", "c"}, Output: "o.mp4", Encoder: CPUEncoder(22, "fast")}
	assert.Equal(t, "-i a -i b -i c -filter_complex [0:v:0][1:v:0][2:v:0]concat=n=3:v=1:a=0[outv] -map [outv] -c:v libx264 -preset fast -crf 22 -pix_fmt yuv420p o.mp4", joined(f))
}

func TestXfadeArgs(t *testing.T) {
	r := XfadeRequest{First: "a", Second: "b", Output: "x", Duration: 0.6, Offset: 7.4}
	assert.Equal(t, "-hwaccel none -i a -i b -filter_complex [0:v][1:v]xfade=transition=fade:duration=0.6:offset=7.4[v] -map [v] -c:v libx264 -preset ultrafast -crf 25 -pix_fmt yuv420p -threads 0 x", joined(r))
}

func TestLoopTrimArgs(t *testing.T) {
	trim := LoopTrimRequest{Input: "c", Output: "o", Loops: 0, Target: 5}
	assert.Equal(t, "-i c -c copy -t 5 o", joined(trim))
	assert.Equal(t, 0, trim.ExtraLoops())
	assert.Contains(t, trim.Describe(), "trim")

	loop := LoopTrimRequest{Input: "c", Output: "o", Loops: 3, Target: 30}
	assert.Equal(t, "-stream_loop 2 -i c -c copy -t 30 o", joined(loop))
	assert.Equal(t, 2, loop.ExtraLoops())
}

func TestBlendArgs(t *testing.T) {
	enc := CPUEncoder(22, "fast")
	simple := BlendRequest{Base: "b", Overlay: "ov", Output: "o", Mode: BlendSimple, Opacity: 0.5, Target: 12, Encoder: enc}
	assert.Equal(t, "-i b -stream_loop -1 -i ov -filter_complex [1:v]format=yuva420p,colorchannelmixer=aa=0.5[overlay];[0:v][overlay]overlay=format=auto,setsar=1[v] -map [v] -c:v libx264 -preset fast -crf 22 -pix_fmt yuv420p -t 12 -an o", joined(simple))

	screen := simple
	screen.Mode = BlendScreen
	args := joined(screen)
	assert.True(t, strings.HasPrefix(args, "-stream_loop -1 -i b -t 12 -stream_loop -1 -i ov -filter_complex "))
	assert.Contains(t, args, "[1:v]scale=1920:1080,format=yuva420p,colorchannelmixer=aa=0.5,format=rgb24[ov]")
	assert.Contains(t, args, "[bg][ov]blend=all_mode=screen,format=rgb24,setsar=1,format=yuv420p[v]")
}

func TestFadeAndBlackFadeArgs(t *testing.T) {
	f := FadeRequest{Input: "i", Output: "o", Duration: 20, FadeIn: true, FadeOut: true, Encoder: CPUEncoder(22, "fast")}
	assert.Equal(t, "-i i -vf fade=t=in:st=0:d=0.5,fade=t=out:st=19.5:d=0.5 -c:v libx264 -preset fast -crf 22 -pix_fmt yuv420p -an o", joined(f))

	j := BlackFadeJoinRequest{Intro: "a", Main: "b", Output: "o", IntroDuration: 10, MainDuration: 15, FinalFadeOut: true}
	args := joined(j)
	assert.Contains(t, args, "[0:v]fade=t=out:st=9.5:d=0.5:color=black[intro_fade]")
	assert.Contains(t, args, ";[v]fade=t=out:st=24.5:d=0.5[vfinal] -map [vfinal]")

	j.FinalFadeOut = false
	assert.Contains(t, joined(j), "concat=n=2:v=1:a=0[v] -map [v]")
}

func TestMixArgs(t *testing.T) {
	with := MixRequest{Main: "m", Background: "bg", Output: "o", MainVolume: 1, BackgroundVolume: 0.15, Duration: 25}
	assert.Equal(t, "-i m -stream_loop -1 -i bg -filter_complex [0:a]volume=1[a1];[1:a]volume=0.15[a2];[a1][a2]amix=inputs=2:duration=first:dropout_transition=2 -t 25 -c:a libmp3lame -b:a 320k o", joined(with))

	without := MixRequest{Main: "m", Output: "o", MainVolume: 0.8, Duration: 25}
	assert.Equal(t, "-i m -af volume=0.8 -t 25 -c:a libmp3lame -b:a 320k o", joined(without))
}

func TestMuxArgs(t *testing.T) {
	r := MuxRequest{Video: "v", Audio: "a", Output: "o", Duration: 20, Format: "mp4"}
	assert.Equal(t, "-i v -i a -c:v copy -c:a aac -b:a 192k -map 0:v:0 -map 1:a:0 -t 20 -f mp4 o", joined(r))
}

func TestSubtitleBurnFilter(t *testing.T) {
	r := SubtitleBurnRequest{Input: "v", Subtitles: `C:\subs\it's.ass`, Output: "o", FontsDir: "/fonts"}
	assert.Equal(t, `subtitles='C\:/subs/it\'s.ass':fontsdir='/fonts'`, r.Filter())

	r.ForceStyle = "FontName=Arial,FontSize=24"
	assert.Contains(t, r.Filter(), ":force_style='FontName=Arial,FontSize=24'")
	assert.Contains(t, joined(r), "-c:a copy o")
}

func TestRequestsDescribeNonEmpty(t *testing.T) {
	reqs := []Request{
		AudioTranscodeRequest{}, MotionRequest{}, NormalizeVideoRequest{}, ConcatRequest{},
		ConcatFilterRequest{}, XfadeRequest{}, LoopTrimRequest{}, BlendRequest{}, FadeRequest{},
		BlackFadeJoinRequest{}, MixRequest{}, MuxRequest{}, ExtractAudioRequest{}, SubtitleBurnRequest{},
	}
	kinds := map[string]bool{}
	for _, r := range reqs {
		require.NotEmpty(t, r.Describe())
		kinds[r.Kind()] = true
	}
	assert.Len(t, kinds, len(reqs))
}
