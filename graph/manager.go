package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cwbudde/algo-vecmath"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/capture"
	"github.com/cwbudde/algo-studio/codec"
	"github.com/cwbudde/algo-studio/dsp/analyser"
	"github.com/cwbudde/algo-studio/dsp/buffer"
	"github.com/cwbudde/algo-studio/dsp/core"
	"github.com/cwbudde/algo-studio/dsp/param"
	"github.com/cwbudde/algo-studio/dsp/resample"
	"github.com/cwbudde/algo-studio/internal/metrics"
)

// DefaultMasterGain is the bus gain of a new manager.
const DefaultMasterGain = 0.8

// ErrDisabled is wrapped by capture errors of a manager without an audio
// context.
var ErrDisabled = errors.New("graph: audio disabled")

// Renderer is the pull interface a Sink drives.
type Renderer interface {
	SampleRate() float64
	// RenderInterleaved fills dst with stereo frames, L R L R.
	RenderInterleaved(dst []float64)
}

// Sink is an output device that pulls audio from the manager.
type Sink interface {
	Start(r Renderer) error
	Close() error
}

type config struct {
	proc       core.ProcessorConfig
	tau        float64
	masterGain float64
	analyser   []analyser.Option
	log        *zap.Logger
	metrics    *metrics.Studio
	recorder   *capture.Recorder
	decoder    *codec.Decoder
	sink       Sink
}

// Option configures a Manager.
type Option func(*config)

// WithProcessor applies processing-context options such as
// core.WithSampleRate and core.WithBlockSize.
func WithProcessor(opts ...core.ProcessorOption) Option {
	return func(c *config) {
		for _, opt := range opts {
			if opt != nil {
				opt(&c.proc)
			}
		}
	}
}

// WithTimeConstant sets the ramp time constant in seconds. Zero makes
// changes land on the next sample.
func WithTimeConstant(tau float64) Option {
	return func(c *config) {
		if core.IsFinite(tau) && tau >= 0 {
			c.tau = tau
		}
	}
}

// WithMasterGain sets the initial bus gain.
func WithMasterGain(g float64) Option {
	return func(c *config) {
		if core.IsFinite(g) {
			c.masterGain = core.Clamp(g, 0, 1)
		}
	}
}

// WithAnalyser configures the analyser tap.
func WithAnalyser(opts ...analyser.Option) Option {
	return func(c *config) { c.analyser = append(c.analyser, opts...) }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics instruments the manager.
func WithMetrics(m *metrics.Studio) Option {
	return func(c *config) { c.metrics = m }
}

// WithRecorder provides the capture device path.
func WithRecorder(r *capture.Recorder) Option {
	return func(c *config) { c.recorder = r }
}

// WithDecoder replaces the default payload decoder.
func WithDecoder(d *codec.Decoder) Option {
	return func(c *config) { c.decoder = d }
}

// WithSink attaches an output device, started by New.
func WithSink(s Sink) Option {
	return func(c *config) { c.sink = s }
}

// Manager owns the master bus and every live track chain.
type Manager struct {
	cfg config
	log *zap.Logger

	mu       sync.Mutex
	chains   map[string]*Chain
	order    []*Chain
	master   *param.Param
	tap      *analyser.Analyser
	busL     []float64
	busR     []float64
	mono     []float64
	gainBuf  []float64
	planar   [2][]float64
	disabled bool
	closed   bool
}

// New builds the processing context and starts the sink, if any. A failure
// is returned once; callers that want to keep running can fall back to
// Disabled.
func New(opts ...Option) (*Manager, error) {
	cfg := config{
		proc:       core.DefaultProcessorConfig(),
		tau:        param.DefaultTimeConstant,
		masterGain: DefaultMasterGain,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.decoder == nil {
		cfg.decoder = codec.NewDecoder(codec.WithLogger(cfg.log))
	}

	tap, err := analyser.New(cfg.analyser...)
	if err != nil {
		return nil, fmt.Errorf("graph: analyser: %w", err)
	}

	n := cfg.proc.BlockSize
	m := &Manager{
		cfg:     cfg,
		log:     cfg.log,
		chains:  make(map[string]*Chain),
		master:  param.New(cfg.masterGain, 0, 1, cfg.proc.SampleRate, cfg.tau),
		tap:     tap,
		busL:    make([]float64, n),
		busR:    make([]float64, n),
		mono:    make([]float64, n),
		gainBuf: make([]float64, n),
	}

	if cfg.sink != nil {
		if err := cfg.sink.Start(m); err != nil {
			return nil, fmt.Errorf("graph: start output: %w", err)
		}
	}

	m.log.Info("audio graph ready",
		zap.Float64("sample_rate", cfg.proc.SampleRate),
		zap.Int("block_size", cfg.proc.BlockSize))
	return m, nil
}

// Disabled returns a manager with no audio context. Every operation is a
// no-op; capture start reports ErrDisabled.
func Disabled() *Manager {
	return &Manager{
		cfg:      config{proc: core.DefaultProcessorConfig(), decoder: codec.NewDecoder()},
		log:      zap.NewNop(),
		chains:   make(map[string]*Chain),
		disabled: true,
	}
}

// Enabled reports whether the manager renders audio.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.disabled && !m.closed
}

// SampleRate returns the context sample rate.
func (m *Manager) SampleRate() float64 {
	return m.cfg.proc.SampleRate
}

// Analyser returns the tap on the master bus, or nil when disabled.
func (m *Manager) Analyser() *analyser.Analyser {
	return m.tap
}

// CreateChain wires a new default chain for trackID into the master bus.
// An existing chain under the same id is torn down and replaced.
func (m *Manager) CreateChain(trackID string) *Chain {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disabled || m.closed {
		return nil
	}
	if old, ok := m.chains[trackID]; ok {
		m.log.Warn("replacing existing chain", zap.String("track", trackID))
		m.removeLocked(old)
	}

	c := newChain(trackID, &m.mu, m.cfg.proc.SampleRate, m.cfg.tau, m.cfg.proc.BlockSize)
	m.chains[trackID] = c
	m.order = append(m.order, c)
	m.cfg.metrics.SetLiveChains(len(m.chains))
	m.log.Debug("chain created", zap.String("track", trackID))
	return c
}

// RemoveChain tears down the chain for trackID. It reports whether one
// existed.
func (m *Manager) RemoveChain(trackID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chains[trackID]
	if !ok {
		return false
	}
	m.removeLocked(c)
	m.cfg.metrics.SetLiveChains(len(m.chains))
	m.log.Debug("chain removed", zap.String("track", trackID))
	return true
}

func (m *Manager) removeLocked(c *Chain) {
	c.teardown()
	delete(m.chains, c.id)
	for i, o := range m.order {
		if o == c {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Chain looks up the live chain for trackID.
func (m *Manager) Chain(trackID string) (*Chain, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chains[trackID]
	return c, ok
}

// TrackIDs lists live chains in sorted order.
func (m *Manager) TrackIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.chains))
	for id := range m.chains {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetVolume ramps the chain gain toward v, clamped to [0, 1].
func (m *Manager) SetVolume(trackID string, v float64) {
	m.update(trackID, "volume", func(c *Chain) bool { return c.volume.SetTargetAtTime(v) })
}

// SetPan ramps the pan position toward v, clamped to [-1, 1].
func (m *Manager) SetPan(trackID string, v float64) {
	m.update(trackID, "pan", func(c *Chain) bool { return c.pan.SetTargetAtTime(v) })
}

// SetEQBand ramps band b toward gainDB, clamped to ±MaxEQGainDB. Unknown
// bands are ignored.
func (m *Manager) SetEQBand(trackID string, b Band, gainDB float64) {
	if !b.valid() {
		return
	}
	m.update(trackID, "eq_"+b.String(), func(c *Chain) bool { return c.bands[b].SetTargetAtTime(gainDB) })
}

func (m *Manager) update(trackID, name string, set func(*Chain) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chains[trackID]
	if !ok {
		return
	}
	if set(c) {
		m.cfg.metrics.ParamUpdate(name)
	}
}

// SetMasterGain ramps the bus gain toward g, clamped to [0, 1].
func (m *Manager) SetMasterGain(g float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.master != nil && m.master.SetTargetAtTime(g) {
		m.cfg.metrics.ParamUpdate("master")
	}
}

// MasterGain returns the bus gain target.
func (m *Manager) MasterGain() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.master == nil {
		return 0
	}
	return m.master.Target()
}

// Render produces len(out[0]) frames of the master bus. out holds one
// (mono downmix) or two (left, right) equally long slices.
func (m *Manager) Render(out [][]float64) {
	if len(out) == 0 {
		return
	}
	n := len(out[0])

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disabled || m.closed {
		for _, ch := range out {
			clear(ch)
		}
		return
	}

	block := m.cfg.proc.BlockSize
	for off := 0; off < n; off += block {
		end := min(off+block, n)
		m.renderBlock(end - off)
		l, r := m.busL[:end-off], m.busR[:end-off]
		if len(out) == 1 {
			copy(out[0][off:end], m.mono[:end-off])
			continue
		}
		copy(out[0][off:end], l)
		copy(out[1][off:end], r)
	}
}

func (m *Manager) renderBlock(n int) {
	began := time.Now()

	l, r := m.busL[:n], m.busR[:n]
	clear(l)
	clear(r)
	for _, c := range m.order {
		c.render(n, l, r)
	}

	g := m.gainBuf[:n]
	m.master.Fill(g)
	vecmath.MulBlockInPlace(l, g)
	vecmath.MulBlockInPlace(r, g)

	mono := m.mono[:n]
	for i := range mono {
		mono[i] = 0.5 * (l[i] + r[i])
	}
	m.tap.Write(mono)

	m.cfg.metrics.ObserveRender(time.Since(began))
}

// RenderInterleaved fills dst with len(dst)/2 stereo frames. It is meant for
// a single output goroutine.
func (m *Manager) RenderInterleaved(dst []float64) {
	frames := len(dst) / 2
	if cap(m.planar[0]) < frames {
		m.planar[0] = make([]float64, frames)
		m.planar[1] = make([]float64, frames)
	}
	l, r := m.planar[0][:frames], m.planar[1][:frames]
	m.Render([][]float64{l, r})
	for i := range frames {
		dst[2*i] = l[i]
		dst[2*i+1] = r[i]
	}
}

// StartCapture begins recording from the shared input device.
func (m *Manager) StartCapture(ctx context.Context) error {
	if !m.Enabled() {
		return &capture.DeviceAccessError{Err: ErrDisabled}
	}
	if m.cfg.recorder == nil {
		return &capture.DeviceAccessError{Err: capture.ErrNoDevice}
	}
	return m.cfg.recorder.Start(ctx)
}

// StopCapture finishes the active recording. Without one it returns an
// empty payload.
func (m *Manager) StopCapture() (codec.Payload, error) {
	if m.cfg.recorder == nil {
		return codec.Payload{}, nil
	}
	return m.cfg.recorder.Stop()
}

// AbortCapture discards the active recording, if any.
func (m *Manager) AbortCapture() {
	if m.cfg.recorder != nil {
		m.cfg.recorder.Abort()
	}
}

// CaptureState reports the recorder state.
func (m *Manager) CaptureState() capture.State {
	if m.cfg.recorder == nil {
		return capture.Idle
	}
	return m.cfg.recorder.State()
}

// Decode turns a complete encoded file into a buffer at the context sample
// rate. Decode failures are returned as *codec.DecodeError.
func (m *Manager) Decode(ctx context.Context, data []byte) (*buffer.Audio, error) {
	return m.DecodePayload(ctx, codec.Payload{Data: data})
}

// DecodePayload is Decode for a payload with a known media type.
func (m *Manager) DecodePayload(ctx context.Context, p codec.Payload) (*buffer.Audio, error) {
	a, err := m.cfg.decoder.DecodePayload(ctx, p)
	if err != nil {
		m.cfg.metrics.Decode("error")
		return nil, err
	}
	if a.SampleRate != m.SampleRate() {
		if a, err = resample.Audio(a, m.SampleRate()); err != nil {
			m.cfg.metrics.Decode("error")
			return nil, fmt.Errorf("graph: resample decoded audio: %w", err)
		}
	}
	m.cfg.metrics.Decode("ok")
	return a, nil
}

// Dispose releases the output device and any capture session and detaches
// every chain. Later calls are no-ops.
func (m *Manager) Dispose() error {
	m.mu.Lock()
	if m.closed || m.disabled {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for _, c := range m.order {
		c.teardown()
	}
	m.order = nil
	clear(m.chains)
	m.cfg.metrics.SetLiveChains(0)
	m.mu.Unlock()

	m.AbortCapture()

	if m.cfg.sink != nil {
		if err := m.cfg.sink.Close(); err != nil {
			return fmt.Errorf("graph: close output: %w", err)
		}
	}
	m.log.Info("audio graph disposed")
	return nil
}
