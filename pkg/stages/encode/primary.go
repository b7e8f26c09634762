package encode

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/user/asciivideo/pkg/pipeline"
	"github.com/user/asciivideo/pkg/ports"
)

var errMuxerNotReady = errors.New("chunk arrived before the muxer was created")

// chunkSink routes encoder output into the muxer. Encoders call it from their
// own goroutines.
type chunkSink struct {
	mu       sync.Mutex
	mux      ports.Muxer
	videoErr error
	audioErr error
	videos   int
	audios   int
}

func (c *chunkSink) setMuxer(m ports.Muxer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mux = m
}

func (c *chunkSink) addVideo(chunk ports.EncodedChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mux == nil {
		c.videoErr = errMuxerNotReady
		return
	}
	if err := c.mux.AddVideoChunk(chunk); err != nil {
		if c.videoErr == nil {
			c.videoErr = err
		}
		return
	}
	c.videos++
}

func (c *chunkSink) addAudio(chunk ports.EncodedChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mux == nil {
		c.audioErr = errMuxerNotReady
		return
	}
	if err := c.mux.AddAudioChunk(chunk); err != nil {
		if c.audioErr == nil {
			c.audioErr = err
		}
		return
	}
	c.audios++
}

func (c *chunkSink) errs() (video, audio error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.videoErr, c.audioErr
}

// encodePrimary runs the structured encoder path. It returns an error
// matching ports.ErrUnsupportedConfig when the video encoder refuses the
// configuration, before any frame is submitted.
func (s *Stage) encodePrimary(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	result := s.baseResult(input)
	result.Format = pipeline.FormatPrimary
	result.Codec = VideoCodec

	sink := &chunkSink{}

	vcfg := ports.VideoEncoderConfig{
		Codec:   VideoCodec,
		Width:   result.Width,
		Height:  result.Height,
		Bitrate: input.Bitrate,
		FPS:     input.FPS,
	}
	if err := s.enc.Video.Configure(ctx, vcfg, sink.addVideo); err != nil {
		s.enc.Video.Close()
		if errors.Is(err, ports.ErrUnsupportedConfig) {
			return result, err
		}
		return result, fmt.Errorf("configure video encoder: %w", err)
	}
	defer s.enc.Video.Close()

	muxCfg := ports.MuxerConfig{
		Video: ports.MuxerVideoTrack{
			Codec:  VideoCodec,
			Width:  result.Width,
			Height: result.Height,
			FPS:    input.FPS,
		},
	}

	audioOn := s.configureAudio(ctx, input.Audio, sink)
	if audioOn {
		defer s.enc.Audio.Close()
		muxCfg.Audio = &ports.MuxerAudioTrack{
			Codec:      AudioCodec,
			SampleRate: input.Audio.SampleRate,
			Channels:   input.Audio.Channels,
		}
	}

	mux, err := s.enc.Muxers.NewMuxer(muxCfg)
	if err != nil {
		return result, fmt.Errorf("create muxer: %w", err)
	}
	sink.setMuxer(mux)

	s.logger.Debug("Encoding %d frames at %.1f fps (%dx%d, %d bps)", len(input.Frames), input.FPS, result.Width, result.Height, input.Bitrate)

	total := len(input.Frames)
	frameDur := int64(math.Round(1e6 / input.FPS))
	for i, frame := range input.Frames {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ts := int64(math.Round(float64(i) * 1e6 / input.FPS))
		if err := s.enc.Video.Encode(frame.Image, ts, frameDur, i%KeyFrameInterval == 0); err != nil {
			return result, fmt.Errorf("encode frame %d: %w", i, err)
		}
		report(input.OnProgress, i+1, total)
	}

	if audioOn {
		if err := s.feedAudio(ctx, input.Audio, input.MaxAudioChunk); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			s.logger.Warn("Audio encoding failed, output will be video-only: %v", err)
			audioOn = false
		}
		s.enc.Audio.Close()
	}

	if err := s.enc.Video.Flush(); err != nil {
		return result, fmt.Errorf("flush video encoder: %w", err)
	}
	s.enc.Video.Close()

	videoErr, audioErr := sink.errs()
	if videoErr != nil {
		return result, fmt.Errorf("mux video: %w", videoErr)
	}
	if audioOn && audioErr != nil {
		s.logger.Warn("Audio muxing failed, output will be video-only: %v", audioErr)
		audioOn = false
	}

	data, err := mux.Finalize()
	if err != nil {
		return result, fmt.Errorf("finalize container: %w", err)
	}

	result.AudioIncluded = audioOn
	s.logger.Debug("Container finalized: %d bytes", len(data))
	return finish(result, data), nil
}

// configureAudio probes and configures the audio encoder. It reports whether
// the audio track should be declared.
func (s *Stage) configureAudio(ctx context.Context, pcm *ports.PCMAudio, sink *chunkSink) bool {
	if pcm == nil || pcm.Frames() == 0 {
		return false
	}
	if !s.caps.AudioEncoder || s.enc.Audio == nil {
		s.logger.Warn("No audio encoder available, output will be video-only")
		return false
	}

	acfg := ports.AudioEncoderConfig{
		Codec:      AudioCodec,
		SampleRate: pcm.SampleRate,
		Channels:   pcm.Channels,
		Bitrate:    AudioBitrate,
	}

	ok, err := s.enc.Audio.IsConfigSupported(ctx, acfg)
	if err != nil {
		s.logger.Warn("Audio configuration probe failed, output will be video-only: %v", err)
		return false
	}
	if !ok {
		s.logger.Warn("Audio configuration %s %d Hz x%d not supported, output will be video-only", acfg.Codec, acfg.SampleRate, acfg.Channels)
		return false
	}

	if err := s.enc.Audio.Configure(ctx, acfg, sink.addAudio); err != nil {
		s.enc.Audio.Close()
		s.logger.Warn("Audio encoder configuration failed, output will be video-only: %v", err)
		return false
	}
	return true
}

// feedAudio submits pcm in windows of at most sampleRate/10 frames, with
// channels interleaved, then flushes the encoder.
func (s *Stage) feedAudio(ctx context.Context, pcm *ports.PCMAudio, maxChunk int) error {
	window := pcm.SampleRate / 10
	if maxChunk > 0 && maxChunk < window {
		window = maxChunk
	}
	if window < 1 {
		window = 1
	}

	channels := pcm.Channels
	total := pcm.Frames()
	for off := 0; off < total; off += window {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := window
		if off+n > total {
			n = total - off
		}

		buf := make([]float32, n*channels)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				buf[i*channels+ch] = pcm.Samples[ch][off+i]
			}
		}

		ts := int64(off) * 1_000_000 / int64(pcm.SampleRate)
		if err := s.enc.Audio.Encode(buf, n, ts); err != nil {
			return fmt.Errorf("encode audio at %dus: %w", ts, err)
		}
	}

	return s.enc.Audio.Flush()
}
