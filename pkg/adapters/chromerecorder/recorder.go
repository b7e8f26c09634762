// Package chromerecorder implements ports.Recorder with a headless Chrome
// canvas recorded through captureStream and MediaRecorder.
package chromerecorder

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/user/asciivideo/pkg/ports"
)

var (
	// ErrChromeNotFound is returned when no browser executable can be resolved.
	ErrChromeNotFound = errors.New("chromerecorder: chrome not found")

	// ErrAlreadyStarted is returned when Start is called on a running recorder.
	ErrAlreadyStarted = errors.New("chromerecorder: already recording")

	// ErrNotStarted is returned by Stop without a running capture.
	ErrNotStarted = errors.New("chromerecorder: not recording")
)

// DefaultMimeTypes are the formats assumed for MediaRecorder without probing.
var DefaultMimeTypes = []string{
	"video/webm;codecs=vp9",
	"video/webm;codecs=vp8",
	"video/webm",
}

// Options configures the browser.
type Options struct {
	ChromePath string
	Headless   bool
}

// DefaultOptions returns headless options with path auto-detection.
func DefaultOptions() Options {
	return Options{Headless: true}
}

// Recorder implements ports.Recorder.
type Recorder struct {
	opts Options

	mu          sync.Mutex
	allocCancel context.CancelFunc
	cancel      context.CancelFunc
	ctx         context.Context
	stop        chan struct{}
	tickDone    chan struct{}
	tickErr     error
	frames      int
}

// New creates a recorder.
func New(opts Options) *Recorder {
	return &Recorder{opts: opts}
}

func allocatorOptions(opts Options, chromePath string) []chromedp.ExecAllocatorOption {
	out := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.ExecPath(chromePath),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		// Keep timers running while the page is not visible.
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
	}
	if opts.Headless {
		out = append(out, chromedp.Flag("headless", "new"))
	}
	return out
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// launch starts a browser on a blank page.
func launch(ctx context.Context, opts Options) (context.Context, context.CancelFunc, context.CancelFunc, error) {
	chromePath := FindChrome(opts.ChromePath)
	if chromePath == "" {
		return nil, nil, nil, ErrChromeNotFound
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(opts, chromePath)...)
	bctx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(bctx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		allocCancel()
		return nil, nil, nil, fmt.Errorf("launch chrome: %w", err)
	}
	return bctx, cancel, allocCancel, nil
}

// Start opens the page, paints the first snapshot and starts recording.
func (r *Recorder) Start(ctx context.Context, cfg ports.RecorderConfig, surface ports.Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx != nil {
		return ErrAlreadyStarted
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 {
		return fmt.Errorf("chromerecorder: invalid config %dx%d at %.2f fps", cfg.Width, cfg.Height, cfg.FPS)
	}

	bctx, cancel, allocCancel, err := launch(ctx, r.opts)
	if err != nil {
		return err
	}

	var ok bool
	if err := chromedp.Run(bctx,
		chromedp.EmulateViewport(int64(cfg.Width), int64(cfg.Height)),
		chromedp.Evaluate(fmt.Sprintf(pageSetup, cfg.Width, cfg.Height), &ok),
	); err != nil {
		cancel()
		allocCancel()
		return fmt.Errorf("set up page: %w", err)
	}
	if err := drawSnapshot(bctx, surface); err != nil {
		cancel()
		allocCancel()
		return err
	}

	mime, err := sonic.MarshalString(cfg.MimeType)
	if err != nil {
		cancel()
		allocCancel()
		return err
	}
	start := fmt.Sprintf("window.__start(%s, %d, %g)", mime, cfg.Bitrate, cfg.FPS)
	if err := chromedp.Run(bctx, chromedp.Evaluate(start, &ok)); err != nil {
		cancel()
		allocCancel()
		return fmt.Errorf("start media recorder: %w", err)
	}

	r.ctx = bctx
	r.cancel = cancel
	r.allocCancel = allocCancel
	r.stop = make(chan struct{})
	r.tickDone = make(chan struct{})
	r.tickErr = nil
	r.frames = 1

	go r.tickLoop(bctx, cfg, surface)
	return nil
}

// drawSnapshot paints the surface onto the page canvas. An empty surface is
// left as is.
func drawSnapshot(ctx context.Context, surface ports.Surface) error {
	img := surface.Snapshot()
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	expr := "window.__draw('data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()) + "')"
	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &ok, awaitPromise)); err != nil {
		return fmt.Errorf("draw snapshot: %w", err)
	}
	return nil
}

func (r *Recorder) tickLoop(ctx context.Context, cfg ports.RecorderConfig, surface ports.Surface) {
	defer close(r.tickDone)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if err := drawSnapshot(ctx, surface); err != nil {
				r.mu.Lock()
				r.tickErr = err
				r.mu.Unlock()
				return
			}
			r.mu.Lock()
			r.frames++
			r.mu.Unlock()
		}
	}
}

// Stop ends the recording and returns the container bytes.
func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	bctx := r.ctx
	if bctx == nil {
		r.mu.Unlock()
		return nil, ErrNotStarted
	}
	r.ctx = nil
	cancel, allocCancel := r.cancel, r.allocCancel
	r.mu.Unlock()

	defer allocCancel()
	defer cancel()

	close(r.stop)
	<-r.tickDone

	r.mu.Lock()
	tickErr := r.tickErr
	r.mu.Unlock()
	if tickErr != nil {
		return nil, tickErr
	}

	var encoded string
	if err := chromedp.Run(bctx, chromedp.Evaluate("window.__stop()", &encoded, awaitPromise)); err != nil {
		return nil, fmt.Errorf("stop media recorder: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode recording: %w", err)
	}
	return data, nil
}

// Frames returns the number of snapshots painted during the last capture.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// SupportedMimeTypes launches a browser and returns the candidates its
// MediaRecorder accepts, in the given order.
func SupportedMimeTypes(ctx context.Context, opts Options, candidates []string) ([]string, error) {
	bctx, cancel, allocCancel, err := launch(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer allocCancel()
	defer cancel()

	list, err := sonic.MarshalString(candidates)
	if err != nil {
		return nil, err
	}
	var supported []string
	if err := chromedp.Run(bctx, chromedp.Evaluate(fmt.Sprintf(supportedScript, list), &supported)); err != nil {
		return nil, fmt.Errorf("query media recorder: %w", err)
	}
	return supported, nil
}

var _ ports.Recorder = (*Recorder)(nil)
