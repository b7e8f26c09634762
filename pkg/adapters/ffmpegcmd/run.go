package ffmpegcmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// ErrFailed is wrapped by every non-zero exit.
var ErrFailed = errors.New("ffmpegcmd: process failed")

// stderrTail bounds the stderr kept for error messages.
const stderrTail = 4096

// Spec describes a process run to completion.
type Spec struct {
	Path  string
	Args  []string
	Stdin io.Reader
	// Stdout receives the raw output. When nil it is captured in Result.
	Stdout io.Writer
	// StderrLine is called for each stderr line.
	StderrLine func(line string)
}

// Result contains captured output and exit status.
type Result struct {
	Stdout []byte
	Stderr string
	Code   int
}

// Run executes spec and waits for it. A non-zero exit returns an error
// wrapping ErrFailed with the tail of stderr.
func Run(ctx context.Context, spec Spec) (Result, error) {
	var stdoutBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Stdin = spec.Stdin
	if spec.Stdout != nil {
		cmd.Stdout = spec.Stdout
	} else {
		cmd.Stdout = &stdoutBuf
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{Code: -1}, err
	}

	if err := cmd.Start(); err != nil {
		return Result{Code: -1}, fmt.Errorf("start %s: %w", spec.Path, err)
	}

	tail := &tailBuffer{max: stderrTail}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanLines(stderrPipe, tail, spec.StderrLine)
	}()

	// Drain stderr before Wait closes the pipe.
	wg.Wait()
	waitErr := cmd.Wait()

	res := Result{
		Stdout: stdoutBuf.Bytes(),
		Stderr: tail.String(),
	}
	if waitErr != nil {
		res.Code = exitCode(waitErr)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return res, failure(res.Code, waitErr, res.Stderr)
	}
	return res, nil
}

// Process is a long-running ffmpeg fed through stdin and read from stdout.
type Process struct {
	cmd    *exec.Cmd
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	tail   *tailBuffer
	done   chan struct{}
}

// Start launches path with args. The caller must drain Stdout, close Stdin
// and call Wait.
func Start(ctx context.Context, path string, args ...string) (*Process, error) {
	cmd := exec.CommandContext(ctx, path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	p := &Process{
		cmd:    cmd,
		Stdin:  stdin,
		Stdout: stdout,
		tail:   &tailBuffer{max: stderrTail},
		done:   make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		scanLines(stderr, p.tail, nil)
	}()
	return p, nil
}

// Wait waits for the process to exit. Stdout must be fully read first.
func (p *Process) Wait() error {
	<-p.done
	if err := p.cmd.Wait(); err != nil {
		return failure(exitCode(err), err, p.tail.String())
	}
	return nil
}

// Kill terminates the process without waiting.
func (p *Process) Kill() {
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
}

// Stderr returns the retained tail of stderr.
func (p *Process) Stderr() string {
	return p.tail.String()
}

func failure(code int, err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("%w (exit %d): %v", ErrFailed, code, err)
	}
	return fmt.Errorf("%w (exit %d): %v\nstderr: %s", ErrFailed, code, err, stderr)
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func scanLines(r io.Reader, tail *tailBuffer, fn func(string)) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if fn != nil {
			fn(line)
		}
		tail.WriteLine(line)
	}
	// Keep draining so the child never blocks on a full pipe.
	io.Copy(io.Discard, r)
}

// tailBuffer keeps the last max bytes of written lines.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) WriteLine(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, line...)
	t.buf = append(t.buf, '\n')
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
