// Package playback drives the master bus into the system output with oto.
package playback

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/graph"
)

// Player is the part of *oto.Player the output uses.
type Player interface {
	Play()
	Close() error
}

// Backend opens a device that pulls signed 16-bit little-endian PCM from r.
type Backend interface {
	Open(sampleRate, channels int, r io.Reader) (Player, error)
}

// OtoBackend opens the default system device. oto allows a single context
// per process.
type OtoBackend struct {
	BufferSize time.Duration
}

func (b OtoBackend) Open(sampleRate, channels int, r io.Reader) (Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   b.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready
	return ctx.NewPlayer(r), nil
}

// Output is a graph.Sink.
type Output struct {
	backend Backend
	log     *zap.Logger

	mu     sync.Mutex
	player Player
}

// Option configures an Output.
type Option func(*Output)

// WithBackend replaces the oto backend.
func WithBackend(b Backend) Option {
	return func(o *Output) { o.backend = b }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Output) {
		if l != nil {
			o.log = l
		}
	}
}

// New returns an output using oto with a 50 ms device buffer.
func New(opts ...Option) *Output {
	o := &Output{backend: OtoBackend{BufferSize: 50 * time.Millisecond}, log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start opens the device and begins pulling from r.
func (o *Output) Start(r graph.Renderer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return errors.New("playback: already started")
	}
	sr := int(math.Round(r.SampleRate()))
	p, err := o.backend.Open(sr, 2, NewReader(r))
	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	p.Play()
	o.player = p
	o.log.Info("output started", zap.Int("sample_rate", sr))
	return nil
}

// Close stops playback.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	return err
}

// Reader adapts a graph.Renderer to an io.Reader of s16le stereo frames.
type Reader struct {
	r   graph.Renderer
	buf []float64
}

// NewReader returns a Reader over r.
func NewReader(r graph.Renderer) *Reader {
	return &Reader{r: r}
}

// Read renders len(p)/4 frames. It never returns io.EOF.
func (rd *Reader) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	if cap(rd.buf) < 2*frames {
		rd.buf = make([]float64, 2*frames)
	}
	buf := rd.buf[:2*frames]
	rd.r.RenderInterleaved(buf)

	for i, v := range buf {
		v = math.Max(-1, math.Min(1, v))
		binary.LittleEndian.PutUint16(p[2*i:], uint16(int16(math.Round(v*32767))))
	}
	return 4 * frames, nil
}
