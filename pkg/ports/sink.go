package ports

import (
	"image"
)

// DebugSink receives intermediate results for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSourceFrame saves a sampled, down-sampled source grid.
	SaveSourceFrame(index int, img image.Image) error

	// SaveAsciiFrame saves the text rendition of a character frame.
	SaveAsciiFrame(index int, text []byte) error

	// SaveRasterFrame saves a rasterized frame.
	SaveRasterFrame(index int, img image.Image) error

	// SaveRunJSON saves the run metadata as JSON.
	SaveRunJSON(data []byte) error
}
