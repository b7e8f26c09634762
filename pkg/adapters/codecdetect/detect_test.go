package codecdetect

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
)

func TestDetect_Empty(t *testing.T) {
	if _, err := Detect(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestDetect_WebM(t *testing.T) {
	r, err := Detect([]byte{0x1A, 0x45, 0xDF, 0xA3, 0x01, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	if r.Container != ContainerWebM {
		t.Errorf("expected webm, got %s", r.Container)
	}
	if r.Video() != CodecUnknown {
		t.Errorf("webm tracks are not inspected, got %s", r.Video())
	}
}

func TestDetect_Garbage(t *testing.T) {
	if _, err := Detect([]byte("not a container at all")); err == nil {
		t.Error("expected decode error")
	}
}

func TestDetect_FragmentedInit(t *testing.T) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(90000, "video", "en")
	init.AddEmptyTrack(48000, "audio", "en")

	var buf bytes.Buffer
	if err := init.Encode(&buf); err != nil {
		t.Fatalf("encode init: %v", err)
	}

	r, err := Detect(buf.Bytes())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if r.Container != ContainerMP4 {
		t.Errorf("expected mp4, got %s", r.Container)
	}
	if len(r.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(r.Tracks))
	}
	if r.Tracks[0].Handler != "vide" || r.Tracks[0].Timescale != 90000 {
		t.Errorf("unexpected video track %+v", r.Tracks[0])
	}
	if r.Tracks[1].Handler != "soun" || r.Tracks[1].Timescale != 48000 {
		t.Errorf("unexpected audio track %+v", r.Tracks[1])
	}
}
