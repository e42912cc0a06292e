package biquad

import (
	"math"
	"testing"
)

func threeBandCoeffs() []Coefficients {
	return []Coefficients{
		{B0: 1.02, B1: -1.9, B2: 0.89, A1: -1.9, A2: 0.91},
		{B0: 1.1, B1: -1.6, B2: 0.6, A1: -1.6, A2: 0.7},
		{B0: 0.9, B1: -1.2, B2: 0.45, A1: -1.1, A2: 0.35},
	}
}

func TestChain_ProcessSample_MatchesManualCascade(t *testing.T) {
	coeffs := threeBandCoeffs()
	s1, s2, s3 := NewSection(coeffs[0]), NewSection(coeffs[1]), NewSection(coeffs[2])
	chain := NewChain(coeffs...)

	for i, x := range []float64{1, 0.5, -0.3, 0.7, 0, -1, 0.2, 0.8} {
		ref := s3.ProcessSample(s2.ProcessSample(s1.ProcessSample(x)))
		if got := chain.ProcessSample(x); !almostEqual(got, ref, eps) {
			t.Errorf("sample %d: chain=%.15f, ref=%.15f", i, got, ref)
		}
	}
}

func TestChain_ProcessBlock_MatchesProcessSample(t *testing.T) {
	a := NewChain(threeBandCoeffs()...)
	b := NewChain(threeBandCoeffs()...)

	buf := make([]float64, 100)
	for i := range buf {
		buf[i] = math.Cos(float64(i) * 0.21)
	}
	want := make([]float64, len(buf))
	for i, x := range buf {
		want[i] = a.ProcessSample(x)
	}
	b.ProcessBlock(buf)

	for i := range buf {
		if !almostEqual(buf[i], want[i], 1e-10) {
			t.Fatalf("index %d: block=%v sample=%v", i, buf[i], want[i])
		}
	}
}

func TestChain_SetSection_KeepsOtherStages(t *testing.T) {
	c := NewChain(threeBandCoeffs()...)
	c.ProcessBlock([]float64{1, 0, 0, 0, 0.5})
	before := c.State()

	c.SetSection(1, Identity())
	if c.Section(1).Coefficients != Identity() {
		t.Fatal("section 1 not retuned")
	}
	after := c.State()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("section %d state changed: %v -> %v", i, before[i], after[i])
		}
	}
	if c.Section(0).Coefficients != threeBandCoeffs()[0] {
		t.Fatal("section 0 coefficients touched")
	}
}

func TestChain_ImpulseResponse_RestoresState(t *testing.T) {
	c := NewChain(threeBandCoeffs()...)
	c.ProcessSample(0.3)
	saved := c.State()

	ir := c.ImpulseResponse(32)
	if len(ir) != 32 {
		t.Fatalf("len(ir) = %d", len(ir))
	}
	for i, st := range c.State() {
		if st != saved[i] {
			t.Fatalf("state %d not restored", i)
		}
	}
	if c.ImpulseResponse(0) != nil {
		t.Fatal("n=0 should return nil")
	}
}
