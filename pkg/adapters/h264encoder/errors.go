package h264encoder

import "errors"

var (
	// ErrNotInitialized is returned when encoder methods are called before Configure.
	ErrNotInitialized = errors.New("h264encoder: encoder not initialized")

	// ErrEncodingFailed is returned when ffmpeg emits fewer access units than frames.
	ErrEncodingFailed = errors.New("h264encoder: encoding failed")
)
