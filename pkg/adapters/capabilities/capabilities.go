// Package capabilities resolves which encoders the platform offers. The
// result is computed once and handed to the encode stage as configuration.
package capabilities

import (
	"context"
	"fmt"

	"github.com/user/asciivideo/pkg/adapters/chromerecorder"
	"github.com/user/asciivideo/pkg/adapters/ffmpegcmd"
	"github.com/user/asciivideo/pkg/ports"
)

// RecorderBackend identifies the implementation behind the fallback path.
type RecorderBackend string

const (
	// RecorderAuto picks ffmpeg when it has libvpx, then Chrome.
	RecorderAuto RecorderBackend = "auto"
	// RecorderFFmpeg records with ffmpeg libvpx.
	RecorderFFmpeg RecorderBackend = "ffmpeg"
	// RecorderChrome records with headless Chrome MediaRecorder.
	RecorderChrome RecorderBackend = "chrome"
	// RecorderNone disables the fallback path.
	RecorderNone RecorderBackend = "none"
)

// Options configures probing.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// ChromePath is an optional custom path to Chrome.
	ChromePath string
	// Recorder selects the fallback backend. Empty means RecorderAuto.
	Recorder RecorderBackend
	// ProbeChrome asks the browser which formats MediaRecorder accepts
	// instead of assuming the WebM defaults.
	ProbeChrome bool
	// ForcePrimaryOff reports no video encoder so the fallback path runs.
	ForcePrimaryOff bool
	// Logger receives probe details. May be nil.
	Logger ports.Logger
}

// Info describes the probe outcome beyond ports.EncoderCapabilities.
type Info struct {
	FFmpegPath string
	ChromePath string
	// Recorder is the backend chosen for the fallback path, RecorderNone when
	// there is none.
	Recorder RecorderBackend
	// Encoders lists the relevant ffmpeg encoders found.
	Encoders []string
}

// env isolates the platform lookups.
type env struct {
	findFFmpeg   func() (string, error)
	listEncoders func(ctx context.Context, path string) (map[string]bool, error)
	findChrome   func(explicit string) string
	chromeMimes  func(ctx context.Context, opts chromerecorder.Options, candidates []string) ([]string, error)
}

func systemEnv() env {
	return env{
		findFFmpeg:   ffmpegcmd.FindFFmpeg,
		listEncoders: ffmpegcmd.ListEncoders,
		findChrome:   chromerecorder.FindChrome,
		chromeMimes:  chromerecorder.SupportedMimeTypes,
	}
}

// relevantEncoders are reported in Info.Encoders when present.
var relevantEncoders = []string{"libx264", "aac", "libvpx-vp9", "libvpx"}

// Probe inspects ffmpeg and Chrome.
func Probe(ctx context.Context, opts Options) (ports.EncoderCapabilities, Info, error) {
	if opts.FFmpegPath != "" {
		ffmpegcmd.SetFFmpegPath(opts.FFmpegPath)
	}
	return probe(ctx, opts, systemEnv())
}

func probe(ctx context.Context, opts Options, e env) (ports.EncoderCapabilities, Info, error) {
	var caps ports.EncoderCapabilities
	var info Info

	if opts.Recorder == "" {
		opts.Recorder = RecorderAuto
	}
	switch opts.Recorder {
	case RecorderAuto, RecorderFFmpeg, RecorderChrome, RecorderNone:
	default:
		return caps, info, fmt.Errorf("capabilities: unknown recorder backend %q", opts.Recorder)
	}

	encoders := map[string]bool{}
	if path, err := e.findFFmpeg(); err == nil {
		info.FFmpegPath = path
		encoders, err = e.listEncoders(ctx, path)
		if err != nil {
			return caps, info, fmt.Errorf("list ffmpeg encoders: %w", err)
		}
	} else {
		debugf(opts.Logger, "ffmpeg not found: %v", err)
	}
	for _, name := range relevantEncoders {
		if encoders[name] {
			info.Encoders = append(info.Encoders, name)
		}
	}

	// The muxer is pure Go and always present.
	caps.Muxer = true
	caps.VideoEncoder = encoders["libx264"] && !opts.ForcePrimaryOff
	caps.AudioEncoder = encoders["aac"]

	info.Recorder = RecorderNone
	if opts.Recorder == RecorderAuto || opts.Recorder == RecorderFFmpeg {
		if mimes := ffmpegMimeTypes(encoders); len(mimes) > 0 {
			caps.Recorder = true
			caps.RecorderMimeTypes = mimes
			info.Recorder = RecorderFFmpeg
		}
	}
	if !caps.Recorder && (opts.Recorder == RecorderAuto || opts.Recorder == RecorderChrome) {
		if path := e.findChrome(opts.ChromePath); path != "" {
			info.ChromePath = path
			mimes := chromerecorder.DefaultMimeTypes
			if opts.ProbeChrome {
				copts := chromerecorder.Options{ChromePath: path, Headless: true}
				probed, err := e.chromeMimes(ctx, copts, chromerecorder.DefaultMimeTypes)
				if err != nil {
					debugf(opts.Logger, "chrome probe failed: %v", err)
				}
				mimes = probed
			}
			if len(mimes) > 0 {
				caps.Recorder = true
				caps.RecorderMimeTypes = mimes
				info.Recorder = RecorderChrome
			}
		}
	}

	debugf(opts.Logger, "Capabilities: video=%t audio=%t recorder=%s formats=%v",
		caps.VideoEncoder, caps.AudioEncoder, info.Recorder, caps.RecorderMimeTypes)
	return caps, info, nil
}

// ffmpegMimeTypes lists the WebM formats the ffmpeg recorder can produce.
func ffmpegMimeTypes(encoders map[string]bool) []string {
	var out []string
	if encoders["libvpx-vp9"] {
		out = append(out, "video/webm;codecs=vp9")
	}
	if encoders["libvpx"] {
		out = append(out, "video/webm;codecs=vp8", "video/webm")
	}
	return out
}

func debugf(logger ports.Logger, msg string, args ...interface{}) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
