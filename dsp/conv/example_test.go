package conv_test

import (
	"fmt"

	"github.com/cwbudde/algo-peaks/dsp/conv"
)

func ExampleCorrelateValid() {
	out, err := conv.CorrelateValid([]float64{1, 2, 3, 4, 5}, []float64{0.5, 0.5})
	if err != nil {
		panic(err)
	}
	fmt.Println(out)

	// Output:
	// [1.5 2.5 3.5 4.5]
}
