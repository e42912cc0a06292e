package pan_test

import (
	"fmt"

	"github.com/cwbudde/algo-studio/dsp/pan"
)

func ExampleMonoGains() {
	for _, p := range []float64{-1, 0, 0.5, 1} {
		l, r := pan.MonoGains(p)
		fmt.Printf("pan %+.1f: L=%.6f R=%.6f\n", p, l, r)
	}
	// Output:
	// pan -1.0: L=1.000000 R=0.000000
	// pan +0.0: L=0.707107 R=0.707107
	// pan +0.5: L=0.382683 R=0.923880
	// pan +1.0: L=0.000000 R=1.000000
}
