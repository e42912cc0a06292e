package biquad

import (
	"math"
	"testing"
)

// tolerance for floating-point comparisons.
const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func lowpassish() Coefficients {
	return Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
}

func TestNewSection(t *testing.T) {
	c := Coefficients{B0: 1, B1: 2, B2: 3, A1: 4, A2: 5}
	s := NewSection(c)
	if s.Coefficients != c {
		t.Fatalf("coefficients mismatch: got %v, want %v", s.Coefficients, c)
	}
	if st := s.State(); st != [2]float64{0, 0} {
		t.Fatalf("initial state not zero: %v", st)
	}
}

func TestProcessSample_Identity(t *testing.T) {
	s := NewSection(Identity())
	for i, x := range []float64{1, 0, -1, 0.5, 0.25} {
		if y := s.ProcessSample(x); !almostEqual(y, x, eps) {
			t.Errorf("sample %d: got %v, want %v", i, y, x)
		}
	}
}

func TestProcessSample_DFIIT(t *testing.T) {
	// Hand-traced impulse response for B0=0.25, B1=0.5, B2=0.25, A1=-0.2, A2=0.04.
	s := NewSection(lowpassish())

	want := []float64{0.25, 0.55, 0.35, 0.048, -0.0044, -0.0028}
	for i, w := range want {
		var x float64
		if i == 0 {
			x = 1
		}
		if y := s.ProcessSample(x); !almostEqual(y, w, 1e-12) {
			t.Errorf("y[%d] = %.15f, want %.15f", i, y, w)
		}
	}
}

func TestProcessBlock_MatchesProcessSample(t *testing.T) {
	input := make([]float64, 67)
	for i := range input {
		input[i] = math.Sin(float64(i) * 0.3)
	}

	ref := NewSection(lowpassish())
	want := make([]float64, len(input))
	for i, x := range input {
		want[i] = ref.ProcessSample(x)
	}

	s := NewSection(lowpassish())
	got := append([]float64(nil), input...)
	s.ProcessBlock(got[:30])
	s.ProcessBlock(got[30:])

	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Fatalf("index %d: block=%v sample=%v", i, got[i], want[i])
		}
	}
	if s.State() != ref.State() {
		t.Fatalf("state mismatch: block=%v sample=%v", s.State(), ref.State())
	}
}

func TestSetCoefficients_PreservesState(t *testing.T) {
	s := NewSection(lowpassish())
	s.ProcessSample(1)
	before := s.State()

	s.SetCoefficients(Coefficients{B0: 0.5, B1: 0.1, A1: -0.1})
	if s.State() != before {
		t.Fatalf("state changed on retune: before=%v after=%v", before, s.State())
	}
}

func TestReset(t *testing.T) {
	s := NewSection(lowpassish())
	s.ProcessSample(1)
	s.Reset()
	if s.State() != [2]float64{} {
		t.Fatalf("state after reset: %v", s.State())
	}
}
