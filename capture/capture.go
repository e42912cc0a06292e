// Package capture records from a single shared input device.
//
// A [Recorder] moves Idle → Capturing on Start, Capturing → Finalizing →
// Idle on Stop, and Capturing → Idle on Abort. Only one session is ever
// active; a second Start while a session is running fails with
// [ErrCaptureActive].
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/codec"
	"github.com/cwbudde/algo-studio/internal/metrics"
)

var (
	// ErrCaptureActive is returned by Start while a session is running.
	ErrCaptureActive = errors.New("capture: session already active")
	// ErrNoDevice is wrapped in a DeviceAccessError when no device is
	// configured.
	ErrNoDevice = errors.New("capture: no input device")
)

// DeviceAccessError reports that the input device was denied or unavailable.
type DeviceAccessError struct {
	Err error
}

func (e *DeviceAccessError) Error() string {
	return "capture: device access: " + e.Err.Error()
}

func (e *DeviceAccessError) Unwrap() error {
	return e.Err
}

// Device grants access to an input.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream delivers encoded chunks. After Close, ReadChunk must return any
// data still buffered and then io.EOF.
type Stream interface {
	ReadChunk() ([]byte, error)
	MIMEType() string
	Close() error
}

// State is the recorder lifecycle position.
type State int

const (
	Idle State = iota
	Capturing
	Finalizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Finalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records session outcomes.
func WithMetrics(m *metrics.Studio) Option {
	return func(r *Recorder) { r.metrics = m }
}

// Recorder owns at most one capture session.
type Recorder struct {
	dev     Device
	log     *zap.Logger
	metrics *metrics.Studio

	mu      sync.Mutex
	state   State
	stream  Stream
	chunks  [][]byte
	readErr error
	done    chan struct{}
}

// NewRecorder returns an idle recorder for dev. A nil dev makes every Start
// fail with a DeviceAccessError.
func NewRecorder(dev Device, opts ...Option) *Recorder {
	r := &Recorder{dev: dev, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start opens the device and begins buffering chunks. It blocks until the
// device grants or denies access, bounded by ctx.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Idle {
		r.metrics.CaptureSession("rejected")
		return ErrCaptureActive
	}
	if r.dev == nil {
		r.metrics.CaptureSession("denied")
		return &DeviceAccessError{Err: ErrNoDevice}
	}

	stream, err := r.dev.Open(ctx)
	if err != nil {
		r.metrics.CaptureSession("denied")
		r.log.Warn("capture device denied", zap.Error(err))
		var dae *DeviceAccessError
		if errors.As(err, &dae) {
			return dae
		}
		return &DeviceAccessError{Err: err}
	}

	r.state = Capturing
	r.stream = stream
	r.chunks = nil
	r.readErr = nil
	r.done = make(chan struct{})
	go r.pump(stream, r.done)

	r.log.Info("capture started", zap.String("mime", stream.MIMEType()))
	return nil
}

func (r *Recorder) pump(s Stream, done chan struct{}) {
	defer close(done)
	for {
		chunk, err := s.ReadChunk()
		if len(chunk) > 0 {
			r.mu.Lock()
			r.chunks = append(r.chunks, append([]byte(nil), chunk...))
			r.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.mu.Lock()
				r.readErr = err
				r.mu.Unlock()
			}
			return
		}
	}
}

// Stop ends the session and returns every captured byte in arrival order.
// The device is released before the recorder returns to Idle. Without an
// active session Stop returns an empty payload and no error.
func (r *Recorder) Stop() (codec.Payload, error) {
	stream, done, ok := r.finalize()
	if !ok {
		return codec.Payload{}, nil
	}

	closeErr := stream.Close()
	<-done

	r.mu.Lock()
	chunks, readErr := r.chunks, r.readErr
	r.reset()
	r.mu.Unlock()

	p := codec.Payload{MIMEType: stream.MIMEType(), Data: concat(chunks)}
	r.log.Info("capture stopped", zap.Int("chunks", len(chunks)), zap.Int("bytes", len(p.Data)))

	if err := errors.Join(readErr, closeErr); err != nil {
		r.metrics.CaptureSession("failed")
		return p, fmt.Errorf("capture: finalize: %w", err)
	}
	r.metrics.CaptureSession("completed")
	return p, nil
}

// Abort ends the session and discards everything captured.
func (r *Recorder) Abort() {
	stream, done, ok := r.finalize()
	if !ok {
		return
	}
	if err := stream.Close(); err != nil {
		r.log.Warn("closing aborted capture", zap.Error(err))
	}
	<-done

	r.mu.Lock()
	r.reset()
	r.mu.Unlock()

	r.metrics.CaptureSession("aborted")
	r.log.Info("capture aborted")
}

func (r *Recorder) finalize() (Stream, chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Capturing {
		return nil, nil, false
	}
	r.state = Finalizing
	return r.stream, r.done, true
}

func (r *Recorder) reset() {
	r.state = Idle
	r.stream = nil
	r.chunks = nil
	r.readErr = nil
	r.done = nil
}

func concat(chunks [][]byte) []byte {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	if n == 0 {
		return nil
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
