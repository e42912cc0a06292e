package design

import (
	"math"

	"github.com/cwbudde/algo-studio/dsp/filter/biquad"
)

// DefaultShelfQ is the quality factor equivalent to a shelf slope of S = 1.
const DefaultShelfQ = 1 / math.Sqrt2

// Kind selects one of the tone-control responses.
type Kind int

const (
	// KindLowShelf boosts or cuts below the corner frequency.
	KindLowShelf Kind = iota
	// KindPeak boosts or cuts a band around the centre frequency.
	KindPeak
	// KindHighShelf boosts or cuts above the corner frequency.
	KindHighShelf
)

// String returns the Web-Audio style name of the response.
func (k Kind) String() string {
	switch k {
	case KindLowShelf:
		return "lowshelf"
	case KindPeak:
		return "peaking"
	case KindHighShelf:
		return "highshelf"
	default:
		return "unknown"
	}
}

// LowShelf designs a low-shelf biquad with gain in dB.
func LowShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	t, ok := NewTone(KindLowShelf, freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}
	return t.Coefficients(gainDB)
}

// HighShelf designs a high-shelf biquad with gain in dB.
func HighShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	t, ok := NewTone(KindHighShelf, freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}
	return t.Coefficients(gainDB)
}

// Peak designs a peaking-EQ biquad with gain in dB.
func Peak(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	t, ok := NewTone(KindPeak, freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}
	return t.Coefficients(gainDB)
}

// Tone is an RBJ designer with fixed frequency and Q. Only the gain varies
// between calls, so the trigonometric terms are computed once.
type Tone struct {
	kind  Kind
	cw    float64
	alpha float64
}

// NewTone prepares a designer. It reports false when freq is outside
// (0, Nyquist) or the sample rate is not a positive finite number.
func NewTone(kind Kind, freq, q, sampleRate float64) (*Tone, bool) {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return nil, false
	}
	q = normalizedQ(q)
	return &Tone{
		kind:  kind,
		cw:    math.Cos(w0),
		alpha: math.Sin(w0) / (2 * q),
	}, true
}

// Kind returns the response type of the designer.
func (t *Tone) Kind() Kind {
	return t.kind
}

// Coefficients returns the section for the given gain in dB.
func (t *Tone) Coefficients(gainDB float64) biquad.Coefficients {
	a := math.Pow(10, gainDB/40)
	cw, alpha := t.cw, t.alpha

	switch t.kind {
	case KindPeak:
		return normalizeBiquad(
			1+alpha*a, -2*cw, 1-alpha*a,
			1+alpha/a, -2*cw, 1-alpha/a,
		)
	case KindLowShelf:
		beta := 2 * math.Sqrt(a) * alpha
		return normalizeBiquad(
			a*((a+1)-(a-1)*cw+beta),
			2*a*((a-1)-(a+1)*cw),
			a*((a+1)-(a-1)*cw-beta),
			(a+1)+(a-1)*cw+beta,
			-2*((a-1)+(a+1)*cw),
			(a+1)+(a-1)*cw-beta,
		)
	case KindHighShelf:
		beta := 2 * math.Sqrt(a) * alpha
		return normalizeBiquad(
			a*((a+1)+(a-1)*cw+beta),
			-2*a*((a-1)+(a+1)*cw),
			a*((a+1)+(a-1)*cw-beta),
			(a+1)-(a-1)*cw+beta,
			2*((a-1)-(a+1)*cw),
			(a+1)-(a-1)*cw-beta,
		)
	default:
		return biquad.Identity()
	}
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return DefaultShelfQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
