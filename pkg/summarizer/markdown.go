package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// Translator maps an English label to a localized one.
type Translator func(key string) string

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator localizes headings and labels.
func WithTranslator(t Translator) MarkdownOption {
	return func(f *MarkdownFormatter) {
		if t != nil {
			f.t = t
		}
	}
}

// WithVersion adds a generator footer with the given version.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// MarkdownFormatter renders a Summary as Markdown tables.
type MarkdownFormatter struct {
	t       Translator
	version string
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		t: func(key string) string { return key },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.t

	fmt.Fprintf(&b, "# %s\n\n", t("Conversion Summary"))
	fmt.Fprintf(&b, "- %s: %s\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))
	if s.RunID != "" {
		fmt.Fprintf(&b, "- %s: `%s`\n", t("Run ID"), s.RunID)
	}
	b.WriteString("\n")

	f.section(&b, t("Source"), [][2]string{
		{t("File"), s.Source.Path},
		{t("Dimensions"), fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height)},
		{t("Duration"), formatMs(s.Source.DurationMs)},
		{t("Audio Track"), f.yesNo(s.Source.HasAudio)},
	})

	quality := fmt.Sprintf("%.1f Mbps", float64(s.Settings.Bitrate)/1_000_000)
	if s.Settings.Quality != "" {
		quality = fmt.Sprintf("%s (%s)", s.Settings.Quality, quality)
	}
	f.section(&b, t("Settings"), [][2]string{
		{t("Frame Rate"), fmt.Sprintf("%.0f fps", s.Settings.FPS)},
		{t("Width"), fmt.Sprintf("%d %s", s.Settings.AsciiWidth, t("characters"))},
		{t("Glyph Ramp"), fmt.Sprintf("`%s`", s.Settings.Ramp)},
		{t("Noise"), fmt.Sprintf("%.0f%%", s.Settings.NoiseLevel*100)},
		{t("White Threshold"), fmt.Sprintf("%d", s.Settings.Threshold)},
		{t("Quality"), quality},
		{t("Include Audio"), f.yesNo(s.Settings.IncludeAudio)},
	})

	audio := f.yesNo(s.Output.AudioIncluded)
	if !s.Output.AudioIncluded && s.Output.AudioReason != "" {
		audio = fmt.Sprintf("%s (%s)", t("None"), s.Output.AudioReason)
	}
	f.section(&b, t("Output"), [][2]string{
		{t("File"), s.Output.Path},
		{t("Container"), f.container(s.Output.Format)},
		{t("Codec"), s.Output.Codec},
		{t("Video Size"), fmt.Sprintf("%dx%d", s.Output.Width, s.Output.Height)},
		{t("Character Grid"), fmt.Sprintf("%dx%d", s.Output.GridWidth, s.Output.GridHeight)},
		{t("Frame Count"), fmt.Sprintf("%d", s.Output.FrameCount)},
		{t("Video Duration"), formatMs(s.Output.DurationMs)},
		{t("Video File Size"), formatBytes(s.Output.FileSize)},
		{t("Audio"), audio},
	})

	f.section(&b, t("Timings"), [][2]string{
		{t("Sampling"), formatDuration(s.Timings.Sample)},
		{t("Conversion"), formatDuration(s.Timings.Convert)},
		{t("Audio Extraction"), formatDuration(s.Timings.Audio)},
		{t("Encoding"), formatDuration(s.Timings.Encode)},
		{t("Total"), formatDuration(s.Timings.Total)},
	})

	if f.version != "" {
		fmt.Fprintf(&b, "---\n\n%s asciivideo %s\n", t("Generated by"), f.version)
	}

	return b.String()
}

func (f *MarkdownFormatter) section(b *strings.Builder, title string, rows [][2]string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	fmt.Fprintf(b, "| %s | %s |\n", f.t("Item"), f.t("Value"))
	b.WriteString("|------|-------|\n")
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], escapeCell(r[1]))
	}
	b.WriteString("\n")
}

func (f *MarkdownFormatter) yesNo(v bool) string {
	if v {
		return f.t("Yes")
	}
	return f.t("No")
}

func (f *MarkdownFormatter) container(format string) string {
	switch format {
	case "primary":
		return "MP4"
	case "fallback":
		return "WebM (" + f.t("fallback") + ")"
	default:
		return format
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func formatMs(ms int) string {
	return fmt.Sprintf("%d ms", ms)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

// formatBytes renders a byte count with binary units.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 2; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)
