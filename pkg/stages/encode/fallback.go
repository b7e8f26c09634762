package encode

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/user/asciivideo/pkg/pipeline"
	"github.com/user/asciivideo/pkg/ports"
)

// RecorderMimeTypes lists the fallback container formats in preference order.
var RecorderMimeTypes = []string{
	"video/webm;codecs=vp9",
	"video/webm;codecs=vp8",
	"video/webm",
}

// PickMimeType returns the first preferred format the platform supports, or
// the first format it lists when none is preferred.
func PickMimeType(caps ports.EncoderCapabilities) string {
	for _, m := range RecorderMimeTypes {
		if caps.SupportsMimeType(m) {
			return m
		}
	}
	if len(caps.RecorderMimeTypes) > 0 {
		return caps.RecorderMimeTypes[0]
	}
	return ""
}

// Surface is a ports.Surface holding the most recently drawn frame.
type Surface struct {
	mu    sync.RWMutex
	img   image.Image
	drawn int
}

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Draw replaces the surface contents. img must not be modified afterwards.
func (s *Surface) Draw(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
	s.drawn++
}

// Snapshot implements ports.Surface.
func (s *Surface) Snapshot() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img
}

// Drawn returns the number of Draw calls.
func (s *Surface) Drawn() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drawn
}

var _ ports.Surface = (*Surface)(nil)

// encodeFallback replays the frames in real time onto a surface captured by
// the recorder. Audio is not carried on this path.
func (s *Stage) encodeFallback(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	result := s.baseResult(input)
	result.Format = pipeline.FormatFallback

	mime := PickMimeType(s.caps)
	if mime == "" {
		return result, ErrNoEncoder
	}
	result.Codec = mime

	if input.Audio != nil && input.Audio.Frames() > 0 {
		s.logger.Warn("The fallback recorder cannot carry audio, output will be video-only")
	}

	surface := NewSurface()
	surface.Draw(input.Frames[0].Image)

	cfg := ports.RecorderConfig{
		Width:    result.Width,
		Height:   result.Height,
		FPS:      input.FPS,
		MimeType: mime,
		Bitrate:  input.Bitrate,
	}
	if err := s.enc.Recorder.Start(ctx, cfg, surface); err != nil {
		return result, fmt.Errorf("start recorder: %w", err)
	}
	stopped := false
	defer func() {
		if !stopped {
			s.enc.Recorder.Stop()
		}
	}()

	s.logger.Debug("Recording %d frames at %.1f fps as %s", len(input.Frames), input.FPS, mime)

	total := len(input.Frames)
	report(input.OnProgress, 1, total)

	interval := time.Duration(float64(time.Second) / input.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 1; i < total; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
		surface.Draw(input.Frames[i].Image)
		report(input.OnProgress, i+1, total)
	}

	// Let the recorder capture the last frame for two intervals.
	tail := time.NewTimer(2 * interval)
	defer tail.Stop()
	select {
	case <-ctx.Done():
		return result, ctx.Err()
	case <-tail.C:
	}

	stopped = true
	data, err := s.enc.Recorder.Stop()
	if err != nil {
		return result, fmt.Errorf("stop recorder: %w", err)
	}

	s.logger.Debug("Recording finalized: %d bytes", len(data))
	return finish(result, data), nil
}
