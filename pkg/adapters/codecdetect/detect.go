// Package codecdetect identifies the container and codecs of an encoded
// output, for logging and verification.
package codecdetect

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Container identifies a file format.
type Container string

const (
	ContainerMP4     Container = "mp4"
	ContainerWebM    Container = "webm"
	ContainerUnknown Container = "unknown"
)

// Codec represents a sample entry type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecAV1     Codec = "av1"
	CodecAAC     Codec = "aac"
	CodecUnknown Codec = "unknown"
)

// ErrEmpty is returned for zero-length input.
var ErrEmpty = errors.New("codecdetect: empty input")

var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// Track describes one track of an MP4 file.
type Track struct {
	ID        uint32
	Handler   string // "vide" or "soun"
	Codec     Codec
	Timescale uint32
	Samples   int
}

// Report describes an encoded file.
type Report struct {
	Container Container
	Tracks    []Track
}

// Video returns the codec of the first video track, or CodecUnknown.
func (r Report) Video() Codec {
	return r.codec("vide")
}

// Audio returns the codec of the first audio track, or CodecUnknown.
func (r Report) Audio() Codec {
	return r.codec("soun")
}

func (r Report) codec(handler string) Codec {
	for _, t := range r.Tracks {
		if t.Handler == handler {
			return t.Codec
		}
	}
	return CodecUnknown
}

// Detect inspects encoded bytes. WebM is recognised by its EBML magic only;
// MP4 is decoded with mp4ff and its tracks are listed.
func Detect(data []byte) (Report, error) {
	if len(data) == 0 {
		return Report{Container: ContainerUnknown}, ErrEmpty
	}
	if bytes.HasPrefix(data, ebmlMagic) {
		return Report{Container: ContainerWebM}, nil
	}
	return DetectFromReader(bytes.NewReader(data))
}

// DetectFromReader decodes an MP4 from reader.
func DetectFromReader(reader io.ReadSeeker) (Report, error) {
	f, err := mp4.DecodeFile(reader)
	if err != nil {
		return Report{Container: ContainerUnknown}, fmt.Errorf("decode mp4: %w", err)
	}

	report := Report{Container: ContainerMP4}
	var moov *mp4.MoovBox
	if f.IsFragmented() && f.Init != nil {
		moov = f.Init.Moov
	} else {
		moov = f.Moov
	}
	if moov == nil {
		return report, fmt.Errorf("no moov box")
	}

	for _, trak := range moov.Traks {
		t := Track{Codec: codecFromTrack(trak)}
		if trak.Tkhd != nil {
			t.ID = trak.Tkhd.TrackID
		}
		if trak.Mdia != nil {
			if trak.Mdia.Hdlr != nil {
				t.Handler = trak.Mdia.Hdlr.HandlerType
			}
			if trak.Mdia.Mdhd != nil {
				t.Timescale = trak.Mdia.Mdhd.Timescale
			}
		}
		report.Tracks = append(report.Tracks, t)
	}

	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd == nil {
					continue
				}
				for i := range report.Tracks {
					if report.Tracks[i].ID == traf.Tfhd.TrackID {
						for _, trun := range traf.Truns {
							report.Tracks[i].Samples += int(trun.SampleCount())
						}
					}
				}
			}
		}
	}

	return report, nil
}

func codecFromTrack(trak *mp4.TrakBox) Codec {
	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264
		case "av01":
			return CodecAV1
		case "mp4a":
			return CodecAAC
		}
	}
	return CodecUnknown
}
