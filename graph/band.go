package graph

import (
	"strings"

	"github.com/cwbudde/algo-studio/dsp/filter/design"
)

// Band selects one of the three EQ stages of a chain.
type Band int

const (
	BandLow Band = iota
	BandMid
	BandHigh

	numBands = 3
)

// Fixed tone-control voicing.
const (
	LowShelfHz  = 320.0
	PeakHz      = 1000.0
	PeakQ       = 1.0
	HighShelfHz = 3200.0

	// MaxEQGainDB bounds band gain in both directions.
	MaxEQGainDB = 24.0
)

// ParseBand accepts "low", "mid" and "high" in any case.
func ParseBand(s string) (Band, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return BandLow, true
	case "mid":
		return BandMid, true
	case "high":
		return BandHigh, true
	}
	return 0, false
}

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMid:
		return "mid"
	case BandHigh:
		return "high"
	default:
		return "unknown"
	}
}

func (b Band) valid() bool {
	return b >= BandLow && b < numBands
}

func (b Band) tone(sampleRate float64) (*design.Tone, bool) {
	switch b {
	case BandLow:
		return design.NewTone(design.KindLowShelf, LowShelfHz, design.DefaultShelfQ, sampleRate)
	case BandMid:
		return design.NewTone(design.KindPeak, PeakHz, PeakQ, sampleRate)
	case BandHigh:
		return design.NewTone(design.KindHighShelf, HighShelfHz, design.DefaultShelfQ, sampleRate)
	}
	return nil, false
}
