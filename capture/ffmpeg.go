package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/cwbudde/algo-studio/codec"
)

const chunkSize = 4096

// DefaultGrantTimeout bounds how long Open waits for the first audio before
// treating the device as granted.
const DefaultGrantTimeout = 2 * time.Second

// FFmpegDevice captures from a system input through an ffmpeg process that
// writes raw 16-bit PCM to stdout.
type FFmpegDevice struct {
	// Path is the ffmpeg binary. Empty means "ffmpeg" from PATH.
	Path string
	// Format is the ffmpeg input driver: "pulse", "alsa", "avfoundation",
	// "dshow" and so on.
	Format string
	// Input names the device for Format, e.g. "default" or ":0".
	Input      string
	SampleRate int
	Channels   int
	// GrantTimeout overrides DefaultGrantTimeout.
	GrantTimeout time.Duration
}

// Open starts the ffmpeg process and waits until it either delivers audio or
// exits. An exit before the first chunk is a denial. A device that stays
// silent for the whole grant window is taken as granted.
func (d *FFmpegDevice) Open(ctx context.Context) (Stream, error) {
	path := d.Path
	if path == "" {
		path = "ffmpeg"
	}
	bin, err := exec.LookPath(path)
	if err != nil {
		return nil, &DeviceAccessError{Err: err}
	}
	if d.Format == "" || d.Input == "" {
		return nil, &DeviceAccessError{Err: errors.New("input format and device must be set")}
	}
	rate, ch := d.SampleRate, d.Channels
	if rate <= 0 {
		rate = 48000
	}
	if ch <= 0 {
		ch = 1
	}

	// The process outlives Open, so it is not tied to ctx.
	cmd := exec.Command(bin,
		"-loglevel", "error",
		"-f", d.Format,
		"-i", d.Input,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", strconv.Itoa(ch),
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &DeviceAccessError{Err: err}
	}
	stderr := new(syncBuffer)
	cmd.Stderr = stderr

	if err := ctx.Err(); err != nil {
		return nil, &DeviceAccessError{Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &DeviceAccessError{Err: fmt.Errorf("start ffmpeg: %w", err)}
	}

	s := &ffmpegStream{
		cmd:    cmd,
		out:    stdout,
		stderr: stderr,
		mime:   codec.PCMType(rate, ch),
		buf:    make([]byte, chunkSize),
		first:  make(chan chunk, 1),
	}
	go func() {
		buf := make([]byte, chunkSize)
		n, err := stdout.Read(buf)
		s.first <- chunk{data: buf[:n], err: err}
	}()

	grant := d.GrantTimeout
	if grant <= 0 {
		grant = DefaultGrantTimeout
	}
	timer := time.NewTimer(grant)
	defer timer.Stop()

	select {
	case c := <-s.first:
		if len(c.data) == 0 && c.err != nil {
			_ = cmd.Wait()
			return nil, &DeviceAccessError{Err: s.failure(c.err)}
		}
		s.first <- c
	case <-timer.C:
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-s.first
		_ = cmd.Wait()
		return nil, &DeviceAccessError{Err: ctx.Err()}
	}
	return s, nil
}

type chunk struct {
	data []byte
	err  error
}

// syncBuffer collects stderr while the process runs.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(bytes.TrimSpace(b.buf.Bytes()))
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	out    io.ReadCloser
	stderr *syncBuffer
	mime   string
	buf    []byte

	// first carries the read started during Open; nil once consumed.
	first chan chunk

	stop sync.Once
	reap sync.Once
}

func (s *ffmpegStream) ReadChunk() ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if s.first != nil {
		c := <-s.first
		s.first = nil
		data, err = c.data, c.err
	} else {
		var n int
		n, err = s.out.Read(s.buf)
		data = s.buf[:n]
	}
	if err != nil {
		// ffmpeg exits non-zero when interrupted; the exit status carries
		// nothing the caller can act on.
		s.reap.Do(func() { _ = s.cmd.Wait() })
		if errors.Is(err, io.EOF) {
			if msg := s.stderr.String(); msg != "" {
				err = fmt.Errorf("ffmpeg: %s", msg)
			}
		}
	}
	return data, err
}

// failure describes why the process ended before producing audio.
func (s *ffmpegStream) failure(readErr error) error {
	if msg := s.stderr.String(); msg != "" {
		return fmt.Errorf("ffmpeg: %s", msg)
	}
	if state := s.cmd.ProcessState; state != nil && !state.Success() {
		return fmt.Errorf("ffmpeg: %s", state)
	}
	if errors.Is(readErr, io.EOF) {
		return errors.New("ffmpeg: exited without audio")
	}
	return readErr
}

func (s *ffmpegStream) MIMEType() string {
	return s.mime
}

// Close asks ffmpeg to flush and exit. Remaining output stays readable until
// EOF.
func (s *ffmpegStream) Close() error {
	s.stop.Do(func() {
		if err := s.cmd.Process.Signal(os.Interrupt); err != nil {
			_ = s.cmd.Process.Kill()
		}
	})
	return nil
}
