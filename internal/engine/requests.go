// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

func base(p string) string { return filepath.Base(p) }

func withOutput(args []string, format, output string) []string {
	if format != "" {
		args = append(args, "-f", format)
	}
	return append(args, output)
}

// AudioTranscodeRequest converts the narration to a uniform MP3.
type AudioTranscodeRequest struct {
	Input  string
	Output string
}

func (AudioTranscodeRequest) Kind() string { return "audio_transcode" }

func (r AudioTranscodeRequest) Args() []string {
	return []string{"-i", r.Input, "-c:a", "libmp3lame", "-b:a", "320k", "-ar", "44100", r.Output}
}

func (r AudioTranscodeRequest) Describe() string {
	return fmt.Sprintf("transcode audio %s -> %s", base(r.Input), base(r.Output))
}

// MotionRequest renders a still image into a motion clip.
type MotionRequest struct {
	Image    string
	Output   string
	Duration float64
	Motion   Motion
	FadeIn   bool
	FadeOut  bool
	Encoder  Encoder
}

func (MotionRequest) Kind() string { return "motion" }

// Filter returns the complete video filter chain.
func (r MotionRequest) Filter() string {
	return MotionFilter(r.Motion, r.Duration) + fadeFilters(r.FadeIn, r.FadeOut, r.Duration)
}

func (r MotionRequest) Args() []string {
	args := []string{"-loop", "1", "-i", r.Image, "-vf", r.Filter(), "-t", Seconds(r.Duration), "-r", strconv.Itoa(FPS)}
	args = append(args, r.Encoder.Args()...)
	return append(args, "-pix_fmt", PixelFormat, "-an", r.Output)
}

func (r MotionRequest) Describe() string {
	return fmt.Sprintf("%s %s for %ss -> %s", r.Motion, base(r.Image), Seconds(r.Duration), base(r.Output))
}

// NormalizeVideoRequest brings a video clip to the canonical frame and rate.
type NormalizeVideoRequest struct {
	Input  string
	Output string
	// SourceDuration positions the fade-out.
	SourceDuration float64
	FadeIn         bool
	FadeOut        bool
	// Trim limits the output length when positive.
	Trim float64
}

func (NormalizeVideoRequest) Kind() string { return "normalize_video" }

func (r NormalizeVideoRequest) Args() []string {
	length := r.SourceDuration
	if r.Trim > 0 && (length <= 0 || r.Trim < length) {
		length = r.Trim
	}
	vf := fmt.Sprintf("%s,crop=%d:%d", coverScale, FrameWidth, FrameHeight) + fadeFilters(r.FadeIn, r.FadeOut, length)
	args := []string{"-i", r.Input, "-vf", vf, "-r", strconv.Itoa(FPS),
		"-c:v", "libx264", "-preset", "ultrafast", "-crf", "25", "-pix_fmt", PixelFormat, "-an"}
	if r.Trim > 0 {
		args = append(args, "-t", Seconds(r.Trim))
	}
	return append(args, r.Output)
}

func (r NormalizeVideoRequest) Describe() string {
	return fmt.Sprintf("normalize %s -> %s", base(r.Input), base(r.Output))
}

// ConcatRequest joins clips by stream copy through a concat manifest.
type ConcatRequest struct {
	ListPath string
	Output   string
	// Duration trims the result when positive.
	Duration float64
	Format   string
}

func (ConcatRequest) Kind() string { return "concat" }

func (r ConcatRequest) Args() []string {
	args := []string{"-f", "concat", "-safe", "0", "-i", r.ListPath}
	if r.Duration > 0 {
		args = append(args, "-t", Seconds(r.Duration))
	}
	args = append(args, "-c", "copy")
	return withOutput(args, r.Format, r.Output)
}

func (r ConcatRequest) Describe() string {
	return fmt.Sprintf("concat (copy) %s -> %s", base(r.ListPath), base(r.Output))
}

// ConcatFilterRequest joins video clips with the concat filter, re-encoding.
type ConcatFilterRequest struct {
	Inputs   []string
	Output   string
	Duration float64
	Encoder  Encoder
}

func (ConcatFilterRequest) Kind() string { return "concat_filter" }

func (r ConcatFilterRequest) Args() []string {
	var args []string
	var graph strings.Builder
	for i, in := range r.Inputs {
		args = append(args, "-i", in)
		fmt.Fprintf(&graph, "[%d:v:0]", i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=1:a=0[outv]", len(r.Inputs))
	args = append(args, "-filter_complex", graph.String(), "-map", "[outv]")
	args = append(args, r.Encoder.Args()...)
	args = append(args, "-pix_fmt", PixelFormat)
	if r.Duration > 0 {
		args = append(args, "-t", Seconds(r.Duration))
	}
	return append(args, r.Output)
}

func (r ConcatFilterRequest) Describe() string {
	return fmt.Sprintf("concat (re-encode) %d clips -> %s", len(r.Inputs), base(r.Output))
}

// XfadeRequest crossfades two clips. It always runs on the CPU.
type XfadeRequest struct {
	First    string
	Second   string
	Output   string
	Duration float64
	Offset   float64
}

func (XfadeRequest) Kind() string { return "xfade" }

func (r XfadeRequest) Args() []string {
	graph := fmt.Sprintf("[0:v][1:v]xfade=transition=fade:duration=%s:offset=%s[v]", Seconds(r.Duration), Seconds(r.Offset))
	return []string{"-hwaccel", "none", "-i", r.First, "-i", r.Second,
		"-filter_complex", graph, "-map", "[v]",
		"-c:v", "libx264", "-preset", "ultrafast", "-crf", "25", "-pix_fmt", PixelFormat, "-threads", "0", r.Output}
}

func (r XfadeRequest) Describe() string {
	return fmt.Sprintf("xfade %s + %s at %ss -> %s", base(r.First), base(r.Second), Seconds(r.Offset), base(r.Output))
}

// LoopTrimRequest repeats a clip by stream copy and trims it to Target.
// Loops is the total number of passes; zero or one means trim only.
type LoopTrimRequest struct {
	Input  string
	Output string
	Loops  int
	Target float64
}

func (LoopTrimRequest) Kind() string { return "loop_trim" }

// ExtraLoops is the -stream_loop value.
func (r LoopTrimRequest) ExtraLoops() int {
	if r.Loops <= 1 {
		return 0
	}
	return r.Loops - 1
}

func (r LoopTrimRequest) Args() []string {
	var args []string
	if n := r.ExtraLoops(); n > 0 {
		args = append(args, "-stream_loop", strconv.Itoa(n))
	}
	return append(args, "-i", r.Input, "-c", "copy", "-t", Seconds(r.Target), r.Output)
}

func (r LoopTrimRequest) Describe() string {
	if r.ExtraLoops() == 0 {
		return fmt.Sprintf("trim %s to %ss -> %s", base(r.Input), Seconds(r.Target), base(r.Output))
	}
	return fmt.Sprintf("loop %s x%d to %ss -> %s", base(r.Input), r.Loops, Seconds(r.Target), base(r.Output))
}

// BlendMode selects how the overlay is composited.
type BlendMode string

const (
	BlendSimple BlendMode = "simple"
	BlendScreen BlendMode = "screen_blend"
)

// BlendRequest composites a looping overlay on a base clip.
type BlendRequest struct {
	Base    string
	Overlay string
	Output  string
	Mode    BlendMode
	Opacity float64
	Target  float64
	Encoder Encoder
}

func (BlendRequest) Kind() string { return "blend" }

func (r BlendRequest) Args() []string {
	op := num(r.Opacity, 3)
	target := Seconds(r.Target)
	var args []string
	if r.Mode == BlendScreen {
		graph := fmt.Sprintf("[1:v]scale=%d:%d,format=yuva420p,colorchannelmixer=aa=%s,format=rgb24[ov];"+
			"[0:v]format=rgb24[bg];[bg][ov]blend=all_mode=screen,format=rgb24,setsar=1,format=%s[v]",
			FrameWidth, FrameHeight, op, PixelFormat)
		args = []string{"-stream_loop", "-1", "-i", r.Base, "-t", target,
			"-stream_loop", "-1", "-i", r.Overlay, "-filter_complex", graph}
	} else {
		graph := fmt.Sprintf("[1:v]format=yuva420p,colorchannelmixer=aa=%s[overlay];[0:v][overlay]overlay=format=auto,setsar=1[v]", op)
		args = []string{"-i", r.Base, "-stream_loop", "-1", "-i", r.Overlay, "-filter_complex", graph}
	}
	args = append(args, "-map", "[v]")
	args = append(args, r.Encoder.Args()...)
	return append(args, "-pix_fmt", PixelFormat, "-t", target, "-an", r.Output)
}

func (r BlendRequest) Describe() string {
	return fmt.Sprintf("%s overlay %s on %s at %s -> %s", r.Mode, base(r.Overlay), base(r.Base), num(r.Opacity, 3), base(r.Output))
}

// FadeRequest applies fades across the full length of a clip.
type FadeRequest struct {
	Input    string
	Output   string
	Duration float64
	FadeIn   bool
	FadeOut  bool
	Encoder  Encoder
}

func (FadeRequest) Kind() string { return "fade" }

func (r FadeRequest) Args() []string {
	vf := strings.TrimPrefix(fadeFilters(r.FadeIn, r.FadeOut, r.Duration), ",")
	args := []string{"-i", r.Input, "-vf", vf}
	args = append(args, r.Encoder.Args()...)
	return append(args, "-pix_fmt", PixelFormat, "-an", r.Output)
}

func (r FadeRequest) Describe() string {
	return fmt.Sprintf("fade (in=%t out=%t) %s -> %s", r.FadeIn, r.FadeOut, base(r.Input), base(r.Output))
}

// BlackFadeJoinRequest joins the intro and slideshow masters through black.
type BlackFadeJoinRequest struct {
	Intro         string
	Main          string
	Output        string
	IntroDuration float64
	MainDuration  float64
	FinalFadeOut  bool
	Encoder       Encoder
}

func (BlackFadeJoinRequest) Kind() string { return "black_fade_join" }

func (r BlackFadeJoinRequest) Args() []string {
	d := Seconds(FadeDuration)
	introOut := r.IntroDuration - FadeDuration
	if introOut < 0 {
		introOut = 0
	}
	graph := fmt.Sprintf("[0:v]fade=t=out:st=%s:d=%s:color=black[intro_fade];"+
		"[1:v]fade=t=in:st=0:d=%s:color=black[slide_fade];"+
		"[intro_fade][slide_fade]concat=n=2:v=1:a=0[v]", Seconds(introOut), d, d)
	label := "[v]"
	if r.FinalFadeOut {
		st := r.IntroDuration + r.MainDuration - FadeDuration
		if st < 0 {
			st = 0
		}
		graph += fmt.Sprintf(";[v]fade=t=out:st=%s:d=%s[vfinal]", Seconds(st), d)
		label = "[vfinal]"
	}
	args := []string{"-i", r.Intro, "-i", r.Main, "-filter_complex", graph, "-map", label}
	args = append(args, r.Encoder.Args()...)
	return append(args, "-pix_fmt", PixelFormat, r.Output)
}

func (r BlackFadeJoinRequest) Describe() string {
	return fmt.Sprintf("black fade join %s + %s -> %s", base(r.Intro), base(r.Main), base(r.Output))
}

// MixRequest mixes narration with looping background music.
type MixRequest struct {
	Main             string
	Background       string
	Output           string
	MainVolume       float64
	BackgroundVolume float64
	Duration         float64
}

func (MixRequest) Kind() string { return "mix" }

func (r MixRequest) Args() []string {
	mv := num(r.MainVolume, 3)
	var args []string
	if r.Background == "" {
		args = []string{"-i", r.Main, "-af", "volume=" + mv}
	} else {
		graph := fmt.Sprintf("[0:a]volume=%s[a1];[1:a]volume=%s[a2];[a1][a2]amix=inputs=2:duration=first:dropout_transition=2",
			mv, num(r.BackgroundVolume, 3))
		args = []string{"-i", r.Main, "-stream_loop", "-1", "-i", r.Background, "-filter_complex", graph}
	}
	return append(args, "-t", Seconds(r.Duration), "-c:a", "libmp3lame", "-b:a", "320k", r.Output)
}

func (r MixRequest) Describe() string {
	if r.Background == "" {
		return fmt.Sprintf("volume %s -> %s", base(r.Main), base(r.Output))
	}
	return fmt.Sprintf("mix %s + %s -> %s", base(r.Main), base(r.Background), base(r.Output))
}

// MuxRequest muxes the visual master with the mixed audio.
type MuxRequest struct {
	Video    string
	Audio    string
	Output   string
	Duration float64
	Format   string
}

func (MuxRequest) Kind() string { return "mux" }

func (r MuxRequest) Args() []string {
	args := []string{"-i", r.Video, "-i", r.Audio, "-c:v", "copy", "-c:a", "aac", "-b:a", "192k",
		"-map", "0:v:0", "-map", "1:a:0", "-t", Seconds(r.Duration)}
	return withOutput(args, r.Format, r.Output)
}

func (r MuxRequest) Describe() string {
	return fmt.Sprintf("mux %s + %s -> %s", base(r.Video), base(r.Audio), base(r.Output))
}

// ExtractAudioRequest extracts mono 16 kHz PCM for transcription.
type ExtractAudioRequest struct {
	Input  string
	Output string
}

func (ExtractAudioRequest) Kind() string { return "extract_audio" }

func (r ExtractAudioRequest) Args() []string {
	return []string{"-i", r.Input, "-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", r.Output}
}

func (r ExtractAudioRequest) Describe() string {
	return fmt.Sprintf("extract audio %s -> %s", base(r.Input), base(r.Output))
}

// SubtitleBurnRequest burns a subtitle file into the video.
type SubtitleBurnRequest struct {
	Input     string
	Subtitles string
	Output    string
	// ForceStyle overrides the subtitle style (SRT input only).
	ForceStyle string
	FontsDir   string
	Encoder    Encoder
	Format     string
}

func (SubtitleBurnRequest) Kind() string { return "subtitle_burn" }

// Filter returns the subtitles filter expression.
func (r SubtitleBurnRequest) Filter() string {
	vf := "subtitles='" + filterPath(r.Subtitles) + "'"
	if r.FontsDir != "" {
		vf += ":fontsdir='" + filterPath(r.FontsDir) + "'"
	}
	if r.ForceStyle != "" {
		vf += ":force_style='" + r.ForceStyle + "'"
	}
	return vf
}

func (r SubtitleBurnRequest) Args() []string {
	args := []string{"-i", r.Input, "-vf", r.Filter()}
	args = append(args, r.Encoder.Args()...)
	args = append(args, "-pix_fmt", PixelFormat, "-c:a", "copy")
	return withOutput(args, r.Format, r.Output)
}

func (r SubtitleBurnRequest) Describe() string {
	return fmt.Sprintf("burn %s into %s -> %s", base(r.Subtitles), base(r.Input), base(r.Output))
}
