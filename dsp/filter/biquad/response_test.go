package biquad

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestMagnitudeSquared_MatchesResponse(t *testing.T) {
	c := lowpassish()
	sr := 48000.0

	for _, freq := range []float64{100, 500, 1000, 5000, 10000, 20000} {
		h := c.Response(freq, sr)
		fromResponse := real(h)*real(h) + imag(h)*imag(h)
		if got := c.MagnitudeSquared(freq, sr); !almostEqual(got, fromResponse, 1e-10) {
			t.Errorf("freq=%v: MagnitudeSquared=%.15f, |Response|²=%.15f", freq, got, fromResponse)
		}
	}
}

func TestChainResponse_IsProductOfSections(t *testing.T) {
	coeffs := threeBandCoeffs()
	c := NewChain(coeffs...)
	sr := 48000.0

	for _, freq := range []float64{50, 320, 1000, 3200, 12000} {
		want := complex(1, 0)
		for i := range coeffs {
			want *= coeffs[i].Response(freq, sr)
		}
		got := c.Response(freq, sr)
		if cmplx.Abs(got-want) > 1e-12 {
			t.Errorf("freq=%v: got %v want %v", freq, got, want)
		}
		db := c.MagnitudeDB(freq, sr)
		if !almostEqual(db, 20*math.Log10(cmplx.Abs(want)), 1e-9) {
			t.Errorf("freq=%v: MagnitudeDB=%v", freq, db)
		}
	}
}

func TestStable(t *testing.T) {
	c := lowpassish()
	if !c.Stable() {
		t.Fatal("lowpass-ish section should be stable")
	}
	if (&Coefficients{B0: 1, A1: -2.1, A2: 1.2}).Stable() {
		t.Fatal("pole outside unit circle reported stable")
	}
}
