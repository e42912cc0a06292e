package param_test

import (
	"fmt"

	"github.com/cwbudde/algo-studio/dsp/param"
)

func ExampleParam_SetTargetAtTime() {
	const sr = 48000.0
	gain := param.New(0, 0, 1, sr, param.DefaultTimeConstant)
	gain.SetTargetAtTime(1)

	// One time constant covers 63% of the distance.
	fmt.Printf("%.4f\n", gain.Advance(int(sr*param.DefaultTimeConstant)))
	fmt.Printf("%.4f\n", gain.Advance(int(3*sr*param.DefaultTimeConstant)))
	// Output:
	// 0.6321
	// 0.9817
}
