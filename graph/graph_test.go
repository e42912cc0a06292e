package graph

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-studio/capture"
	"github.com/cwbudde/algo-studio/codec"
	"github.com/cwbudde/algo-studio/dsp/buffer"
	"github.com/cwbudde/algo-studio/dsp/core"
	"github.com/cwbudde/algo-studio/dsp/filter/biquad"
	"github.com/cwbudde/algo-studio/dsp/filter/design"
	"github.com/cwbudde/algo-studio/dsp/param"
	"github.com/cwbudde/algo-studio/internal/testutil"
)

const sr = 48000.0

var centre = math.Cos(math.Pi / 4)

// constSource emits a constant on every channel.
type constSource struct {
	value    float64
	channels int
}

func (s constSource) NumChannels() int { return s.channels }

func (s constSource) ReadFrames(dst [][]float64) {
	for _, ch := range dst {
		for i := range ch {
			ch[i] = s.value
		}
	}
}

// impulseSource emits a single unit sample and then silence.
type impulseSource struct{ fired bool }

func (s *impulseSource) NumChannels() int { return 1 }

func (s *impulseSource) ReadFrames(dst [][]float64) {
	clear(dst[0])
	if !s.fired && len(dst[0]) > 0 {
		dst[0][0] = 1
		s.fired = true
	}
}

func newManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m, err := New(append([]Option{WithMasterGain(1)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Dispose() })
	return m
}

func render(m *Manager, frames int) (l, r []float64) {
	l, r = make([]float64, frames), make([]float64, frames)
	m.Render([][]float64{l, r})
	return l, r
}

func TestUnknownTrackIsNoOp(t *testing.T) {
	m := newManager(t)
	m.CreateChain("a")

	m.SetVolume("ghost", 0.1)
	m.SetPan("ghost", -1)
	m.SetEQBand("ghost", BandMid, 12)
	assert.False(t, m.RemoveChain("ghost"))

	assert.Equal(t, []string{"a"}, m.TrackIDs())
	c, _ := m.Chain("a")
	assert.Equal(t, DefaultVolume, c.Volume())
	assert.Equal(t, 0.0, c.EQGain(BandMid))
}

func TestChainDefaults(t *testing.T) {
	m := newManager(t)
	c := m.CreateChain("t1")
	assert.Equal(t, "t1", c.ID())
	assert.Equal(t, 0.8, c.Volume())
	assert.Equal(t, 0.0, c.Pan())
	for b := BandLow; b <= BandHigh; b++ {
		assert.Equal(t, 0.0, c.EQGain(b))
	}
	assert.InDelta(t, 0, c.EQResponseDB(1000), 1e-9)

	plain, err := New()
	require.NoError(t, err)
	defer plain.Dispose()
	assert.Equal(t, DefaultMasterGain, plain.MasterGain())
}

func TestVolumeConvergesWithoutSnap(t *testing.T) {
	m := newManager(t)
	c := m.CreateChain("v")
	c.Attach(constSource{value: 1, channels: 1})

	render(m, 256)
	m.SetVolume("v", 0.2)
	l, _ := render(m, int(sr*param.DefaultTimeConstant))

	want := (0.2 + 0.6*math.Exp(-1)) * centre
	assert.InDelta(t, want, l[len(l)-1], 1e-6, "one time constant after the change")

	alpha := 1 - math.Exp(-1/(param.DefaultTimeConstant*sr))
	bound := centre * alpha * 0.6
	assert.LessOrEqual(t, testutil.MaxStep(append([]float64{0.8 * centre}, l...)), bound+1e-12)
	assert.Greater(t, l[0], 0.79*centre, "first sample must not jump to the target")

	l, _ = render(m, int(2*sr))
	assert.InDelta(t, 0.2*centre, l[len(l)-1], 1e-6)
}

func TestRetargetMidRamp(t *testing.T) {
	m := newManager(t)
	c := m.CreateChain("v")
	c.Attach(constSource{value: 1, channels: 1})
	render(m, 128)

	m.SetVolume("v", 0.2)
	before, _ := render(m, 2400)
	m.SetVolume("v", 0.6)
	after, _ := render(m, int(2*sr))

	alpha := 1 - math.Exp(-1/(param.DefaultTimeConstant*sr))
	jump := math.Abs(after[0] - before[len(before)-1])
	assert.LessOrEqual(t, jump, centre*alpha+1e-12, "retarget continues from the current value")
	assert.InDelta(t, 0.6*centre, after[len(after)-1], 1e-6)
	assert.Equal(t, 0.6, c.Volume())
}

func TestClampingAndNonFinite(t *testing.T) {
	m := newManager(t)
	c := m.CreateChain("c")

	m.SetVolume("c", 3)
	m.SetPan("c", -9)
	m.SetEQBand("c", BandHigh, 99)
	assert.Equal(t, 1.0, c.Volume())
	assert.Equal(t, -1.0, c.Pan())
	assert.Equal(t, MaxEQGainDB, c.EQGain(BandHigh))

	m.SetVolume("c", math.NaN())
	m.SetEQBand("c", BandHigh, math.Inf(-1))
	m.SetEQBand("c", Band(7), -6)
	assert.Equal(t, 1.0, c.Volume())
	assert.Equal(t, MaxEQGainDB, c.EQGain(BandHigh))
}

func TestEQChainOrderAndVoicing(t *testing.T) {
	m := newManager(t, WithTimeConstant(0))
	c := m.CreateChain("eq")
	m.SetEQBand("eq", BandLow, 6)
	m.SetEQBand("eq", BandMid, -3)
	m.SetEQBand("eq", BandHigh, 4)
	m.SetPan("eq", -1)
	m.SetVolume("eq", 0.5)
	c.Attach(&impulseSource{})

	l, r := render(m, 512)

	ref := biquad.NewChain(
		design.LowShelf(LowShelfHz, 6, design.DefaultShelfQ, sr),
		design.Peak(PeakHz, -3, PeakQ, sr),
		design.HighShelf(HighShelfHz, 4, design.DefaultShelfQ, sr),
	).ImpulseResponse(512)
	for i := range ref {
		ref[i] *= 0.5
	}
	testutil.RequireSliceNearlyEqual(t, l, ref, 1e-12)
	testutil.RequireSliceNearlyEqual(t, r, make([]float64, 512), 1e-12)
}

func TestEQResponseIndependentOfPan(t *testing.T) {
	m := newManager(t, WithTimeConstant(0))
	c := m.CreateChain("p")
	c.Attach(constSource{value: 0, channels: 1})
	m.SetEQBand("p", BandLow, -8)
	m.SetEQBand("p", BandMid, 5)
	render(m, 64)

	freqs := []float64{50, 320, 1000, 3200, 12000}
	before := make([]float64, len(freqs))
	for i, f := range freqs {
		before[i] = c.EQResponseDB(f)
	}

	for _, p := range []float64{-1, -0.3, 0.7, 1} {
		m.SetPan("p", p)
		render(m, 64)
		for i, f := range freqs {
			assert.InDelta(t, before[i], c.EQResponseDB(f), 1e-12, "pan %v, %v Hz", p, f)
		}
	}
	assert.InDelta(t, -8, c.EQResponseDB(20), 0.5)
}

func TestPannedImpulseMirrors(t *testing.T) {
	m := newManager(t, WithTimeConstant(0))
	left := m.CreateChain("left")
	m.SetEQBand("left", BandMid, 9)
	m.SetPan("left", -1)
	left.Attach(&impulseSource{})
	lOnly, _ := render(m, 256)
	m.RemoveChain("left")

	right := m.CreateChain("right")
	m.SetEQBand("right", BandMid, 9)
	m.SetPan("right", 1)
	right.Attach(&impulseSource{})
	_, rOnly := render(m, 256)

	testutil.RequireSliceNearlyEqual(t, lOnly, rOnly, 1e-12)
}

func TestStereoSourceCentreIsTransparent(t *testing.T) {
	m := newManager(t, WithTimeConstant(0))
	c := m.CreateChain("s")
	m.SetVolume("s", 1)
	c.Attach(constSource{value: 0.25, channels: 2})
	l, r := render(m, 64)
	assert.InDelta(t, 0.25, l[63], 1e-12)
	assert.InDelta(t, 0.25, r[63], 1e-12)
}

func TestMasterGainAndAnalyserTap(t *testing.T) {
	m := newManager(t, WithTimeConstant(0))
	c := m.CreateChain("a")
	m.SetVolume("a", 1)
	c.Attach(constSource{value: 0.5, channels: 2})
	m.SetMasterGain(0.5)

	l, _ := render(m, 2048)
	assert.InDelta(t, 0.25, l[2047], 1e-12)

	peak, rms := m.Analyser().Levels()
	assert.InDelta(t, 0.25, peak, 1e-12)
	assert.InDelta(t, 0.25, rms, 1e-12)
	assert.Equal(t, 0.5, m.MasterGain())
}

func TestMonoRenderDownmixes(t *testing.T) {
	m := newManager(t, WithTimeConstant(0))
	c := m.CreateChain("a")
	m.SetVolume("a", 1)
	m.SetPan("a", -1)
	c.Attach(constSource{value: 1, channels: 1})
	out := make([]float64, 300)
	m.Render([][]float64{out})
	assert.InDelta(t, 0.5, out[299], 1e-12)
}

func TestDuplicateCreateReplaces(t *testing.T) {
	m := newManager(t)
	old := m.CreateChain("dup")
	m.SetVolume("dup", 0.1)
	old.Attach(constSource{value: 1, channels: 1})

	fresh := m.CreateChain("dup")
	assert.NotSame(t, old, fresh)
	assert.True(t, old.Removed())
	assert.Nil(t, old.Source())
	assert.Equal(t, DefaultVolume, fresh.Volume())
	assert.Equal(t, []string{"dup"}, m.TrackIDs())

	old.Attach(constSource{value: 1, channels: 1})
	l, _ := render(m, 128)
	assert.Equal(t, make([]float64, 128), l, "a replaced chain must not reach the bus")
}

func TestRemoveChainSilences(t *testing.T) {
	m := newManager(t)
	c := m.CreateChain("x")
	c.Attach(constSource{value: 1, channels: 1})
	l, _ := render(m, 16)
	assert.NotZero(t, l[15])

	assert.True(t, m.RemoveChain("x"))
	l, _ = render(m, 16)
	assert.Equal(t, make([]float64, 16), l)
	m.SetVolume("x", 0.3)
	assert.True(t, c.Removed())
}

func TestBufferSourceTimeline(t *testing.T) {
	clip := &buffer.Audio{SampleRate: sr, Channels: [][]float64{{1, 2, 3}}}
	s := NewBufferSource(clip, 2)
	assert.Equal(t, 1, s.NumChannels())
	assert.Equal(t, 5, s.End())

	dst := [][]float64{make([]float64, 4)}
	s.ReadFrames(dst)
	assert.Equal(t, []float64{0, 0, 0, 0}, dst[0], "paused source is silent")
	assert.Equal(t, 0, s.Position())

	s.Play()
	s.ReadFrames(dst)
	assert.Equal(t, []float64{0, 0, 1, 2}, dst[0])
	s.ReadFrames(dst)
	assert.Equal(t, []float64{3, 0, 0, 0}, dst[0])

	s.Seek(3)
	s.ReadFrames(dst[:1])
	assert.Equal(t, []float64{2, 3, 0, 0}, dst[0])
	s.Pause()
	assert.Equal(t, 7, s.Position())
}

func TestDecodeResamplesToContextRate(t *testing.T) {
	m := newManager(t)
	n := int(44100 * 1.5)
	data, err := codec.EncodeWAV(&buffer.Audio{
		SampleRate: 44100,
		Channels:   [][]float64{testutil.Sine(220, 44100, 0.5, n)},
	}, 16)
	require.NoError(t, err)

	a, err := m.Decode(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, sr, a.SampleRate)
	assert.Equal(t, 72000, a.Frames())
	assert.InDelta(t, float64(1500*time.Millisecond), float64(a.Duration()), float64(time.Millisecond))
}

func TestDecodeTruncatedPropagates(t *testing.T) {
	m := newManager(t)
	data, err := codec.EncodeWAV(&buffer.Audio{SampleRate: 8000, Channels: [][]float64{make([]float64, 800)}}, 16)
	require.NoError(t, err)

	_, err = m.Decode(context.Background(), data[:len(data)/2])
	var de *codec.DecodeError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, codec.ErrTruncated)
}

type chunkDevice struct{ chunks [][]byte }

func (d *chunkDevice) Open(context.Context) (capture.Stream, error) {
	return &chunkStream{chunks: d.chunks, closed: make(chan struct{})}, nil
}

type chunkStream struct {
	mu     sync.Mutex
	chunks [][]byte
	closed chan struct{}
	once   sync.Once
}

func (s *chunkStream) ReadChunk() ([]byte, error) {
	s.mu.Lock()
	if len(s.chunks) > 0 {
		c := s.chunks[0]
		s.chunks = s.chunks[1:]
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()
	<-s.closed
	return nil, io.EOF
}

func (s *chunkStream) MIMEType() string { return codec.PCMType(48000, 1) }

func (s *chunkStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func TestCaptureThroughManager(t *testing.T) {
	rec := capture.NewRecorder(&chunkDevice{chunks: [][]byte{{1, 0}, {2, 0, 3, 0}, {4, 0}}})
	m := newManager(t, WithRecorder(rec))

	p, err := m.StopCapture()
	require.NoError(t, err)
	assert.True(t, p.Empty(), "stop without start")

	require.NoError(t, m.StartCapture(context.Background()))
	assert.ErrorIs(t, m.StartCapture(context.Background()), capture.ErrCaptureActive)
	assert.Equal(t, capture.Capturing, m.CaptureState())

	p, err = m.StopCapture()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0}, p.Data)
	assert.Equal(t, capture.Idle, m.CaptureState())

	a, err := m.DecodePayload(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 4, a.Frames())
}

func TestCaptureWithoutDevice(t *testing.T) {
	m := newManager(t)
	var dae *capture.DeviceAccessError
	assert.ErrorAs(t, m.StartCapture(context.Background()), &dae)
	assert.Equal(t, capture.Idle, m.CaptureState())
}

func TestDisabledManager(t *testing.T) {
	m := Disabled()
	assert.False(t, m.Enabled())
	assert.Nil(t, m.CreateChain("a"))
	m.SetVolume("a", 0.5)
	m.SetMasterGain(0.1)
	assert.Nil(t, m.Analyser())

	var nilChain *Chain
	nilChain.Attach(constSource{value: 1, channels: 1})
	assert.True(t, nilChain.Removed())

	err := m.StartCapture(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)

	l, r := make([]float64, 8), make([]float64, 8)
	l[0], r[0] = 1, 1
	m.Render([][]float64{l, r})
	assert.Equal(t, make([]float64, 8), l)
	require.NoError(t, m.Dispose())
}

type fakeSink struct {
	startErr error
	started  Renderer
	closed   int
}

func (s *fakeSink) Start(r Renderer) error {
	s.started = r
	return s.startErr
}

func (s *fakeSink) Close() error {
	s.closed++
	return nil
}

func TestSinkLifecycle(t *testing.T) {
	sink := &fakeSink{}
	m, err := New(WithSink(sink), WithProcessor(core.WithSampleRate(44100), core.WithBlockSize(64)))
	require.NoError(t, err)
	assert.Same(t, m, sink.started)
	assert.Equal(t, 44100.0, m.SampleRate())

	c := m.CreateChain("a")
	c.Attach(constSource{value: 1, channels: 1})
	buf := make([]float64, 2*300)
	m.RenderInterleaved(buf)
	assert.InDelta(t, 0.8*0.8*centre, buf[598], 1e-12)
	assert.InDelta(t, buf[598], buf[599], 1e-12)

	require.NoError(t, m.Dispose())
	require.NoError(t, m.Dispose())
	assert.Equal(t, 1, sink.closed)
	assert.False(t, m.Enabled())
	assert.Nil(t, m.CreateChain("b"))
}

func TestSinkFailureReported(t *testing.T) {
	boom := errors.New("no output device")
	_, err := New(WithSink(&fakeSink{startErr: boom}))
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentUpdatesWhileRendering(t *testing.T) {
	m := newManager(t)
	for _, id := range []string{"a", "b", "c"} {
		m.CreateChain(id).Attach(constSource{value: 0.1, channels: 2})
	}

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				v := float64(i%10) / 10
				m.SetVolume("a", v)
				m.SetPan("b", v*2-1)
				m.SetEQBand("c", Band(w%3), v*10)
			}
		}()
	}
	for range 50 {
		l, _ := render(m, 128)
		testutil.RequireFinite(t, l)
	}
	wg.Wait()
}

func TestParseBand(t *testing.T) {
	b, ok := ParseBand(" High ")
	assert.True(t, ok)
	assert.Equal(t, BandHigh, b)
	_, ok = ParseBand("treble")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Band(5).String())
}
