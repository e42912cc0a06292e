package resample

import (
	"errors"
	"math"
)

// designPolyphase builds a Kaiser-windowed sinc prototype and splits it into
// up branches. It returns the branches and the prototype length.
func designPolyphase(up, down int, p profile) ([][]float64, int, error) {
	nTaps := p.tapsPerPhase * up
	fc := 0.5 / float64(max(up, down)) * p.cutoffScale

	taps := make([]float64, nTaps)
	center := 0.5 * float64(nTaps-1)
	var sum float64
	for n := range taps {
		t := float64(n) - center
		taps[n] = 2 * fc * sinc(2*fc*t) * kaiser(n, nTaps, p.kaiserBeta)
		sum += taps[n]
	}
	if sum == 0 {
		return nil, 0, errors.New("resample: designed zero-sum filter")
	}

	// Unity DC gain per output sample after zero stuffing.
	scale := float64(up) / sum
	phases := make([][]float64, up)
	for ph := range phases {
		branch := make([]float64, 0, (nTaps-ph+up-1)/up)
		for i := ph; i < nTaps; i += up {
			branch = append(branch, taps[i]*scale)
		}
		phases[ph] = branch
	}
	return phases, nTaps, nil
}

// approximateRatio finds the continued-fraction convergent of v with a
// denominator no larger than maxDen.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0
	x := v
	for {
		frac := x - math.Floor(x)
		if frac < 1e-12 {
			break
		}
		x = 1 / frac
		a := math.Floor(x)
		p2, q2 := a*p1+p0, a*q1+q0
		if q2 > float64(maxDen) {
			break
		}
		p0, q0, p1, q1 = p1, q1, p2, q2
	}

	num, den = int(math.Round(p1)), int(math.Round(q1))
	if num <= 0 || den <= 0 {
		return 1, 1
	}
	g := gcd(num, den)
	return num / g, den / g
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}
	pix := math.Pi * x
	return math.Sin(pix) / pix
}

func kaiser(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}
	t := 2*float64(i)/float64(n-1) - 1
	return besselI0(beta*math.Sqrt(math.Max(0, 1-t*t))) / besselI0(beta)
}

func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	x2 := x * x / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)
		sum += term
		if term < 1e-16*sum {
			break
		}
	}
	return sum
}
