// Package webmrecorder implements ports.Recorder by piping periodic surface
// snapshots into a real-time ffmpeg libvpx encoder.
package webmrecorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/user/asciivideo/pkg/adapters/ffmpegcmd"
	"github.com/user/asciivideo/pkg/ports"
)

var (
	// ErrAlreadyStarted is returned when Start is called on a running recorder.
	ErrAlreadyStarted = errors.New("webmrecorder: already recording")

	// ErrNotStarted is returned by Stop without a running capture.
	ErrNotStarted = errors.New("webmrecorder: not recording")
)

// EncoderFor returns the ffmpeg encoder for mimeType, or "" when unsupported.
func EncoderFor(mimeType string) string {
	switch strings.ReplaceAll(strings.ToLower(mimeType), " ", "") {
	case "video/webm;codecs=vp9":
		return "libvpx-vp9"
	case "video/webm;codecs=vp8", "video/webm":
		return "libvpx"
	}
	return ""
}

// Recorder implements ports.Recorder.
type Recorder struct {
	mu       sync.Mutex
	proc     *ffmpegcmd.Process
	data     []byte
	readErr  error
	readDone chan struct{}
	stop     chan struct{}
	tickDone chan struct{}
	tickErr  error
	frames   int
}

// New creates a new recorder.
func New() *Recorder {
	return &Recorder{}
}

// Start launches ffmpeg and begins sampling surface at cfg.FPS.
func (r *Recorder) Start(ctx context.Context, cfg ports.RecorderConfig, surface ports.Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.proc != nil {
		return ErrAlreadyStarted
	}
	codec := EncoderFor(cfg.MimeType)
	if codec == "" {
		return fmt.Errorf("webmrecorder: unsupported mime type %q", cfg.MimeType)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 {
		return fmt.Errorf("webmrecorder: invalid config %dx%d at %.2f fps", cfg.Width, cfg.Height, cfg.FPS)
	}

	path, err := ffmpegcmd.FindFFmpeg()
	if err != nil {
		return err
	}

	proc, err := ffmpegcmd.Start(ctx, path, buildArgs(cfg, codec)...)
	if err != nil {
		return err
	}

	r.proc = proc
	r.data = nil
	r.readErr = nil
	r.tickErr = nil
	r.frames = 0
	r.readDone = make(chan struct{})
	r.stop = make(chan struct{})
	r.tickDone = make(chan struct{})

	go r.readLoop(proc.Stdout)
	go r.tickLoop(proc.Stdin, cfg, surface)
	return nil
}

func buildArgs(cfg ports.RecorderConfig, codec string) []string {
	args := []string{
		"-hide_banner", "-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", strconv.FormatFloat(cfg.FPS, 'f', -1, 64),
		"-i", "pipe:0",
		"-an",
		"-c:v", codec,
		"-deadline", "realtime",
		"-cpu-used", "8",
		"-pix_fmt", "yuv420p",
	}
	if cfg.Bitrate > 0 {
		args = append(args, "-b:v", strconv.Itoa(cfg.Bitrate))
	}
	return append(args, "-f", "webm", "pipe:1")
}

func (r *Recorder) readLoop(stdout io.Reader) {
	defer close(r.readDone)
	var buf bytes.Buffer
	_, err := io.Copy(&buf, stdout)

	r.mu.Lock()
	r.data = buf.Bytes()
	r.readErr = err
	r.mu.Unlock()
}

// tickLoop writes the current surface once per frame interval. Ticks before
// the first draw are skipped.
func (r *Recorder) tickLoop(stdin io.Writer, cfg ports.RecorderConfig, surface ports.Surface) {
	defer close(r.tickDone)

	frame := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	frames := 0
	var writeErr error
	defer func() {
		r.mu.Lock()
		r.frames = frames
		r.tickErr = writeErr
		r.mu.Unlock()
	}()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.FPS))
	defer ticker.Stop()

	write := func() bool {
		img := surface.Snapshot()
		if img == nil {
			return true
		}
		draw.Draw(frame, frame.Bounds(), img, img.Bounds().Min, draw.Src)
		if _, err := stdin.Write(frame.Pix); err != nil {
			writeErr = fmt.Errorf("write frame: %w", err)
			return false
		}
		frames++
		return true
	}

	if !write() {
		return
	}
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if !write() {
				return
			}
		}
	}
}

// Stop ends the capture and returns the WebM bytes.
func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	proc := r.proc
	if proc == nil {
		r.mu.Unlock()
		return nil, ErrNotStarted
	}
	r.proc = nil
	r.mu.Unlock()

	close(r.stop)
	<-r.tickDone
	proc.Stdin.Close()
	<-r.readDone
	waitErr := proc.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tickErr != nil {
		return nil, r.tickErr
	}
	if waitErr != nil {
		return nil, waitErr
	}
	if r.readErr != nil {
		return nil, fmt.Errorf("read recorder output: %w", r.readErr)
	}
	if r.frames == 0 {
		return nil, fmt.Errorf("webmrecorder: no frames captured")
	}
	return r.data, nil
}

// Frames returns the number of frames written by the last capture.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

var _ ports.Recorder = (*Recorder)(nil)
