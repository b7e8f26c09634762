package ffmpegcmd

import (
	"context"
	"strings"
)

// ListEncoders returns the encoder names reported by `ffmpeg -encoders`.
func ListEncoders(ctx context.Context, ffmpegPath string) (map[string]bool, error) {
	res, err := Run(ctx, Spec{
		Path: ffmpegPath,
		Args: []string{"-hide_banner", "-encoders"},
	})
	if err != nil {
		return nil, err
	}
	return ParseEncoders(string(res.Stdout)), nil
}

// ParseEncoders parses the table printed by `ffmpeg -encoders`. Entries
// follow a "------" separator line as "<flags> <name> <description>".
func ParseEncoders(out string) map[string]bool {
	encoders := make(map[string]bool)
	inTable := false
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inTable {
			if strings.HasPrefix(trimmed, "---") {
				inTable = true
			}
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		encoders[fields[1]] = true
	}
	return encoders
}
