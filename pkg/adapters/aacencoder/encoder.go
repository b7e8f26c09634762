// Package aacencoder implements ports.AudioEncoder with ffmpeg's native AAC
// encoder. PCM goes in as f32le and ADTS frames come back out; headers are
// stripped so each chunk is one raw AAC access unit.
package aacencoder

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/Eyevinn/mp4ff/aac"

	"github.com/user/asciivideo/pkg/adapters/ffmpegcmd"
	"github.com/user/asciivideo/pkg/ports"
)

// Codec is the only codec string the encoder accepts (AAC-LC).
const Codec = "mp4a.40.2"

// SamplesPerFrame is the AAC-LC frame length.
const SamplesPerFrame = 1024

// ErrNotInitialized is returned when encoder methods are called before Configure.
var ErrNotInitialized = errors.New("aacencoder: encoder not initialized")

// sampleRates are the AAC sampling frequencies that fit an mp4a sample entry.
var sampleRates = map[int]bool{
	8000: true, 11025: true, 12000: true, 16000: true,
	22050: true, 24000: true, 32000: true, 44100: true, 48000: true,
}

// Encoder implements ports.AudioEncoder.
type Encoder struct {
	mu      sync.Mutex
	cfg     ports.AudioEncoderConfig
	output  ports.ChunkHandler
	proc    *ffmpegcmd.Process
	done    chan struct{}
	closed  bool
	buf     []byte
	readErr error
}

// New creates a new AAC encoder.
func New() *Encoder {
	return &Encoder{}
}

// IsConfigSupported checks the codec, sample rate and channel count, then
// whether the local ffmpeg has an aac encoder.
func (e *Encoder) IsConfigSupported(ctx context.Context, cfg ports.AudioEncoderConfig) (bool, error) {
	if cfg.Codec != Codec || !sampleRates[cfg.SampleRate] || cfg.Channels < 1 || cfg.Channels > 2 {
		return false, nil
	}
	path, err := ffmpegcmd.FindFFmpeg()
	if err != nil {
		return false, nil
	}
	encoders, err := ffmpegcmd.ListEncoders(ctx, path)
	if err != nil {
		return false, fmt.Errorf("list encoders: %w", err)
	}
	return encoders["aac"], nil
}

// Configure starts ffmpeg.
func (e *Encoder) Configure(ctx context.Context, cfg ports.AudioEncoderConfig, output ports.ChunkHandler) error {
	ok, err := e.IsConfigSupported(ctx, cfg)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %d Hz %d ch", ports.ErrUnsupportedConfig, cfg.Codec, cfg.SampleRate, cfg.Channels)
	}

	path, err := ffmpegcmd.FindFFmpeg()
	if err != nil {
		return err
	}

	args := []string{
		"-hide_banner", "-v", "error",
		"-f", "f32le",
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-ac", strconv.Itoa(cfg.Channels),
		"-i", "pipe:0",
		"-c:a", "aac",
	}
	if cfg.Bitrate > 0 {
		args = append(args, "-b:a", strconv.Itoa(cfg.Bitrate))
	}
	args = append(args, "-f", "adts", "pipe:1")

	proc, err := ffmpegcmd.Start(ctx, path, args...)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.output = output
	e.proc = proc
	e.done = make(chan struct{})
	e.closed = false
	e.readErr = nil

	go e.readLoop(proc.Stdout)
	return nil
}

// readLoop parses ADTS frames and emits one chunk per frame.
func (e *Encoder) readLoop(r io.Reader) {
	defer close(e.done)

	br := bufio.NewReader(r)
	frameDurUs := int64(SamplesPerFrame) * 1_000_000 / int64(e.cfg.SampleRate)
	for n := int64(0); ; n++ {
		hdr, _, err := aac.DecodeADTSHeader(br)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				e.setReadErr(fmt.Errorf("adts header: %w", err))
			}
			io.Copy(io.Discard, br)
			return
		}
		payload := make([]byte, hdr.PayloadLength)
		if _, err := io.ReadFull(br, payload); err != nil {
			e.setReadErr(fmt.Errorf("adts payload: %w", err))
			io.Copy(io.Discard, br)
			return
		}
		e.output(ports.EncodedChunk{
			Data:        payload,
			TimestampUs: n * SamplesPerFrame * 1_000_000 / int64(e.cfg.SampleRate),
			DurationUs:  frameDurUs,
			Key:         true,
		})
	}
}

func (e *Encoder) setReadErr(err error) {
	e.mu.Lock()
	e.readErr = err
	e.mu.Unlock()
}

// Encode writes frames*channels interleaved samples. The timestamp is
// implied by stream position.
func (e *Encoder) Encode(interleaved []float32, frames int, timestampUs int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.proc == nil || e.closed {
		return ErrNotInitialized
	}
	n := frames * e.cfg.Channels
	if n > len(interleaved) {
		return fmt.Errorf("aacencoder: %d frames need %d samples, got %d", frames, n, len(interleaved))
	}

	if cap(e.buf) < n*4 {
		e.buf = make([]byte, n*4)
	}
	buf := e.buf[:n*4]
	for i, s := range interleaved[:n] {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	if _, err := e.proc.Stdin.Write(buf); err != nil {
		return fmt.Errorf("write samples: %w\nstderr: %s", err, e.proc.Stderr())
	}
	return nil
}

// Flush closes ffmpeg's input and waits for the remaining frames.
func (e *Encoder) Flush() error {
	e.mu.Lock()
	if e.proc == nil || e.closed {
		e.mu.Unlock()
		return ErrNotInitialized
	}
	e.closed = true
	proc, done := e.proc, e.done
	e.mu.Unlock()

	proc.Stdin.Close()
	<-done
	if err := proc.Wait(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readErr
}

// Close stops ffmpeg if it is still running.
func (e *Encoder) Close() error {
	e.mu.Lock()
	if e.proc == nil || e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	proc, done := e.proc, e.done
	e.mu.Unlock()

	proc.Stdin.Close()
	proc.Kill()
	<-done
	proc.Wait()
	return nil
}

var _ ports.AudioEncoder = (*Encoder)(nil)
