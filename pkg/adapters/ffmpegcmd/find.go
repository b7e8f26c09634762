// Package ffmpegcmd locates and runs the ffmpeg and ffprobe executables.
package ffmpegcmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg cannot be located.
	ErrFFmpegNotFound = errors.New("ffmpegcmd: ffmpeg not found")
	// ErrFFprobeNotFound is returned when ffprobe cannot be located.
	ErrFFprobeNotFound = errors.New("ffmpegcmd: ffprobe not found")
)

var (
	customMu      sync.RWMutex
	customFFmpeg  string
	customFFprobe string
)

// SetFFmpegPath overrides ffmpeg discovery. An empty path restores it.
func SetFFmpegPath(path string) {
	customMu.Lock()
	defer customMu.Unlock()
	customFFmpeg = path
}

// SetFFprobePath overrides ffprobe discovery. An empty path restores it.
func SetFFprobePath(path string) {
	customMu.Lock()
	defer customMu.Unlock()
	customFFprobe = path
}

// IsFFmpegAvailable checks if ffmpeg is available on the system.
func IsFFmpegAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	customMu.RLock()
	custom := customFFmpeg
	customMu.RUnlock()

	path, err := find("ffmpeg", custom, "FFMPEG_PATH")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}
	return path, nil
}

// FindFFprobe searches for ffprobe like FindFFmpeg, using FFPROBE_PATH, and
// finally looks next to the ffmpeg executable.
func FindFFprobe() (string, error) {
	customMu.RLock()
	custom := customFFprobe
	customMu.RUnlock()

	path, err := find("ffprobe", custom, "FFPROBE_PATH")
	if err == nil {
		return path, nil
	}
	if custom == "" && os.Getenv("FFPROBE_PATH") == "" {
		if ff, ffErr := FindFFmpeg(); ffErr == nil {
			sibling := filepath.Join(filepath.Dir(ff), execName("ffprobe"))
			if _, statErr := os.Stat(sibling); statErr == nil {
				return sibling, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %v", ErrFFprobeNotFound, err)
}

func execName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func find(name, custom, envVar string) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err != nil {
			return "", fmt.Errorf("custom path %s not found", custom)
		}
		return custom, nil
	}

	if envPath := os.Getenv(envVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%s %s not found", envVar, envPath)
		}
		return envPath, nil
	}

	if path, err := exec.LookPath(execName(name)); err == nil {
		return path, nil
	}

	for _, dir := range commonDirs() {
		p := filepath.Join(dir, execName(name))
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s not in PATH or common locations", name)
}

func commonDirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\ffmpeg\bin`,
			`C:\Program Files\ffmpeg\bin`,
			`C:\Program Files (x86)\ffmpeg\bin`,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin",
			"/usr/local/bin",
			"/usr/bin",
		}
	default:
		return []string{
			"/usr/bin",
			"/usr/local/bin",
			"/opt/homebrew/bin",
			"/snap/bin",
		}
	}
}
