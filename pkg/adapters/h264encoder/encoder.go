// Package h264encoder implements ports.VideoEncoder with ffmpeg's libx264.
//
// Frames are piped to ffmpeg as raw RGBA and the Annex B output is split into
// access units on delimiter NALs. B-frames are disabled, so access units come
// out in submission order and take their timestamps from a FIFO.
package h264encoder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/user/asciivideo/pkg/adapters/ffmpegcmd"
	"github.com/user/asciivideo/pkg/ports"
)

// KeyFrameInterval is the fixed GOP length passed to x264.
const KeyFrameInterval = 30

type pendingFrame struct {
	timestampUs int64
	durationUs  int64
	key         bool
}

// Encoder implements ports.VideoEncoder.
type Encoder struct {
	mu     sync.Mutex
	cfg    ports.VideoEncoderConfig
	output ports.ChunkHandler
	proc   *ffmpegcmd.Process
	frame  *image.RGBA
	done   chan struct{}
	closed bool

	pmu     sync.Mutex
	pending []pendingFrame
	emitted int
	readErr error
}

// New creates a new H.264 encoder.
func New() *Encoder {
	return &Encoder{}
}

// Configure starts ffmpeg. Codecs other than avc1 and a missing libx264 are
// reported as ports.ErrUnsupportedConfig.
func (e *Encoder) Configure(ctx context.Context, cfg ports.VideoEncoderConfig, output ports.ChunkHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !strings.HasPrefix(cfg.Codec, "avc1") {
		return fmt.Errorf("%w: codec %q", ports.ErrUnsupportedConfig, cfg.Codec)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 {
		return fmt.Errorf("%w: %dx%d at %.2f fps", ports.ErrUnsupportedConfig, cfg.Width, cfg.Height, cfg.FPS)
	}

	ffmpegPath, err := ffmpegcmd.FindFFmpeg()
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrUnsupportedConfig, err)
	}
	encoders, err := ffmpegcmd.ListEncoders(ctx, ffmpegPath)
	if err != nil {
		return fmt.Errorf("list encoders: %w", err)
	}
	if !encoders["libx264"] {
		return fmt.Errorf("%w: ffmpeg lacks libx264", ports.ErrUnsupportedConfig)
	}

	proc, err := ffmpegcmd.Start(ctx, ffmpegPath, buildArgs(cfg)...)
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.output = output
	e.proc = proc
	e.frame = image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	e.done = make(chan struct{})
	e.closed = false
	e.pending = nil
	e.emitted = 0
	e.readErr = nil

	go e.readLoop(proc.Stdout)
	return nil
}

func buildArgs(cfg ports.VideoEncoderConfig) []string {
	args := []string{
		"-hide_banner", "-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", strconv.FormatFloat(cfg.FPS, 'f', -1, 64),
		"-i", "pipe:0",
		"-an",
		// yuv420p needs even dimensions
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-c:v", "libx264",
		"-preset", "fast",
		"-profile:v", "high",
		"-level", "4.0",
		"-pix_fmt", "yuv420p",
		"-g", strconv.Itoa(KeyFrameInterval),
		"-x264-params", fmt.Sprintf("aud=1:keyint=%d:min-keyint=%d:scenecut=0:bframes=0", KeyFrameInterval, KeyFrameInterval),
	}
	if cfg.Bitrate > 0 {
		args = append(args,
			"-b:v", strconv.Itoa(cfg.Bitrate),
			"-maxrate", strconv.Itoa(cfg.Bitrate),
			"-bufsize", strconv.Itoa(cfg.Bitrate*2),
		)
	}
	return append(args, "-f", "h264", "pipe:1")
}

// readLoop splits ffmpeg output into access units and delivers them.
func (e *Encoder) readLoop(r io.Reader) {
	defer close(e.done)

	var splitter auSplitter
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, unit := range splitter.Write(buf[:n]) {
				e.emit(unit)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				e.pmu.Lock()
				e.readErr = err
				e.pmu.Unlock()
			}
			break
		}
	}
	if unit := splitter.Flush(); unit != nil {
		e.emit(unit)
	}
}

func (e *Encoder) emit(unit []byte) {
	e.pmu.Lock()
	if len(e.pending) == 0 {
		e.pmu.Unlock()
		return
	}
	meta := e.pending[0]
	e.pending = e.pending[1:]
	e.emitted++
	e.pmu.Unlock()

	e.output(ports.EncodedChunk{
		Data:        unit,
		TimestampUs: meta.timestampUs,
		DurationUs:  meta.durationUs,
		Key:         meta.key || isIDR(unit),
	})
}

// Encode writes one frame to ffmpeg.
func (e *Encoder) Encode(img image.Image, timestampUs, durationUs int64, keyFrame bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.proc == nil || e.closed {
		return ErrNotInitialized
	}

	bounds := img.Bounds()
	draw.Draw(e.frame, e.frame.Bounds(), img, bounds.Min, draw.Src)

	e.pmu.Lock()
	e.pending = append(e.pending, pendingFrame{timestampUs: timestampUs, durationUs: durationUs, key: keyFrame})
	e.pmu.Unlock()

	if _, err := e.proc.Stdin.Write(e.frame.Pix); err != nil {
		return fmt.Errorf("write frame: %w\nstderr: %s", err, e.proc.Stderr())
	}
	return nil
}

// Flush closes ffmpeg's input and waits for every access unit.
func (e *Encoder) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.proc == nil || e.closed {
		return ErrNotInitialized
	}

	e.proc.Stdin.Close()
	<-e.done
	waitErr := e.proc.Wait()
	e.closed = true

	e.pmu.Lock()
	defer e.pmu.Unlock()
	if waitErr != nil {
		return waitErr
	}
	if e.readErr != nil {
		return fmt.Errorf("read encoder output: %w", e.readErr)
	}
	if len(e.pending) > 0 {
		return fmt.Errorf("%w: %d frames without output", ErrEncodingFailed, len(e.pending))
	}
	return nil
}

// Close stops ffmpeg if it is still running.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.proc == nil || e.closed {
		return nil
	}
	e.closed = true
	e.proc.Stdin.Close()
	e.proc.Kill()
	<-e.done
	e.proc.Wait()
	return nil
}

// Ensure Encoder implements ports.VideoEncoder
var _ ports.VideoEncoder = (*Encoder)(nil)
