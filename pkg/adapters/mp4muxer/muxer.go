// Package mp4muxer builds fragmented MP4 files from H.264 and AAC chunks
// using mp4ff.
package mp4muxer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Eyevinn/mp4ff/aac"
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/asciivideo/pkg/ports"
)

// VideoTimescale is the media timescale of the video track.
const VideoTimescale = 90000

var (
	// ErrFinalized is returned when chunks arrive after Finalize.
	ErrFinalized = errors.New("mp4muxer: muxer already finalized")

	// ErrNoAudioTrack is returned by AddAudioChunk when no audio track was declared.
	ErrNoAudioTrack = errors.New("mp4muxer: no audio track declared")

	// ErrNoVideoChunks is returned by Finalize when nothing was added.
	ErrNoVideoChunks = errors.New("mp4muxer: no video chunks")
)

// Factory implements ports.MuxerFactory.
type Factory struct{}

// NewFactory creates a muxer factory.
func NewFactory() *Factory {
	return &Factory{}
}

// NewMuxer validates the track layout and returns an empty muxer.
func (f *Factory) NewMuxer(cfg ports.MuxerConfig) (ports.Muxer, error) {
	if !strings.HasPrefix(cfg.Video.Codec, "avc1") {
		return nil, fmt.Errorf("mp4muxer: unsupported video codec %q", cfg.Video.Codec)
	}
	if cfg.Video.Width <= 0 || cfg.Video.Height <= 0 {
		return nil, fmt.Errorf("mp4muxer: invalid video size %dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	if a := cfg.Audio; a != nil {
		if !strings.HasPrefix(a.Codec, "mp4a") {
			return nil, fmt.Errorf("mp4muxer: unsupported audio codec %q", a.Codec)
		}
		if a.SampleRate <= 0 || a.SampleRate > 0xFFFF || a.Channels < 1 || a.Channels > 2 {
			return nil, fmt.Errorf("mp4muxer: invalid audio layout %d Hz %d ch", a.SampleRate, a.Channels)
		}
	}
	return &Muxer{cfg: cfg}, nil
}

type sample struct {
	data        []byte
	timestampUs int64
	durationUs  int64
	key         bool
}

// Muxer implements ports.Muxer. Chunks are buffered until Finalize.
type Muxer struct {
	mu        sync.Mutex
	cfg       ports.MuxerConfig
	video     []sample
	audio     []sample
	finalized bool
}

// AddVideoChunk appends one Annex B access unit.
func (m *Muxer) AddVideoChunk(chunk ports.EncodedChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finalized {
		return ErrFinalized
	}
	m.video = append(m.video, toSample(chunk))
	return nil
}

// AddAudioChunk appends one raw AAC frame.
func (m *Muxer) AddAudioChunk(chunk ports.EncodedChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finalized {
		return ErrFinalized
	}
	if m.cfg.Audio == nil {
		return ErrNoAudioTrack
	}
	m.audio = append(m.audio, toSample(chunk))
	return nil
}

func toSample(chunk ports.EncodedChunk) sample {
	return sample{
		data:        chunk.Data,
		timestampUs: chunk.TimestampUs,
		durationUs:  chunk.DurationUs,
		key:         chunk.Key,
	}
}

// Finalize writes ftyp, moov and one fragment per track.
func (m *Muxer) Finalize() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finalized {
		return nil, ErrFinalized
	}
	if len(m.video) == 0 {
		return nil, ErrNoVideoChunks
	}
	m.finalized = true

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(VideoTimescale, "video", "en")
	videoTrak := init.Moov.Traks[0]

	sps, pps, err := extractSPSPPS(m.video)
	if err != nil {
		return nil, fmt.Errorf("extract SPS/PPS: %w", err)
	}
	avcC, err := createAVCConfigRecord(sps, pps)
	if err != nil {
		return nil, err
	}

	width, height := m.cfg.Video.Width, m.cfg.Video.Height
	avc1 := mp4.CreateVisualSampleEntryBox("avc1", uint16(width), uint16(height), avcC)
	videoTrak.Mdia.Minf.Stbl.Stsd.AddChild(avc1)
	videoTrak.Tkhd.Width = mp4.Fixed32(width << 16)
	videoTrak.Tkhd.Height = mp4.Fixed32(height << 16)

	videoFrag, err := mp4.CreateFragment(1, videoTrak.Tkhd.TrackID)
	if err != nil {
		return nil, fmt.Errorf("create video fragment: %w", err)
	}
	for _, s := range m.video {
		data := toAVCC(s.data)
		flags := mp4.NonSyncSampleFlags
		if s.key {
			flags = mp4.SyncSampleFlags
		}
		videoFrag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(data)),
				Dur:   uint32(scale(s.durationUs, VideoTimescale)),
			},
			DecodeTime: uint64(scale(s.timestampUs, VideoTimescale)),
			Data:       data,
		})
	}
	frags := []*mp4.Fragment{videoFrag}

	if a := m.cfg.Audio; a != nil {
		init.AddEmptyTrack(uint32(a.SampleRate), "audio", "en")
		audioTrak := init.Moov.Traks[1]

		mp4a, err := audioSampleEntry(a)
		if err != nil {
			return nil, err
		}
		audioTrak.Mdia.Minf.Stbl.Stsd.AddChild(mp4a)

		if len(m.audio) > 0 {
			audioFrag, err := mp4.CreateFragment(2, audioTrak.Tkhd.TrackID)
			if err != nil {
				return nil, fmt.Errorf("create audio fragment: %w", err)
			}
			rate := int64(a.SampleRate)
			for _, s := range m.audio {
				audioFrag.AddFullSample(mp4.FullSample{
					Sample: mp4.Sample{
						Flags: mp4.SyncSampleFlags,
						Size:  uint32(len(s.data)),
						Dur:   uint32(scale(s.durationUs, rate)),
					},
					DecodeTime: uint64(scale(s.timestampUs, rate)),
					Data:       s.data,
				})
			}
			frags = append(frags, audioFrag)
		}
	}

	var buf bytes.Buffer

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	for _, frag := range frags {
		if err := frag.Encode(&buf); err != nil {
			return nil, fmt.Errorf("encode fragment: %w", err)
		}
	}

	return buf.Bytes(), nil
}

func audioSampleEntry(a *ports.MuxerAudioTrack) (*mp4.AudioSampleEntryBox, error) {
	asc := &aac.AudioSpecificConfig{
		ObjectType:           aac.AAClc,
		ChannelConfiguration: byte(a.Channels),
		SamplingFrequency:    a.SampleRate,
	}
	var ascBuf bytes.Buffer
	if err := asc.Encode(&ascBuf); err != nil {
		return nil, fmt.Errorf("encode AudioSpecificConfig: %w", err)
	}
	esds := mp4.CreateEsdsBox(ascBuf.Bytes())
	return mp4.CreateAudioSampleEntryBox("mp4a", uint16(a.Channels), 16, uint16(a.SampleRate), esds), nil
}

// scale converts microseconds to timescale units, rounding to nearest.
func scale(us int64, timescale int64) int64 {
	return (us*timescale + 500_000) / 1_000_000
}

var _ ports.MuxerFactory = (*Factory)(nil)
