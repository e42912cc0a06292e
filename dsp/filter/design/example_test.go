package design_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-studio/dsp/filter/design"
)

func ExamplePeak() {
	const sr = 48000.0
	c := design.Peak(1000, 6, 1, sr)
	fmt.Printf("%.2f dB at 1 kHz\n", c.MagnitudeDB(1000, sr))
	// Output:
	// 6.00 dB at 1 kHz
}

func ExampleTone() {
	const sr = 48000.0
	tone, ok := design.NewTone(design.KindLowShelf, 320, design.DefaultShelfQ, sr)
	if !ok {
		return
	}
	flat := tone.Coefficients(0)
	fmt.Println(tone.Kind())
	fmt.Println("flat at 0 dB:", math.Abs(flat.MagnitudeDB(100, sr)) < 1e-9)
	// Output:
	// lowshelf
	// flat at 0 dB: true
}
