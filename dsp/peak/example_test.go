package peak_test

import (
	"fmt"

	"github.com/cwbudde/algo-peaks/dsp/peak"
)

func ExampleFind() {
	peaks, err := peak.Find([]float64{0, 3, 1, 8, 2, 5, 0})
	if err != nil {
		panic(err)
	}
	for _, p := range peaks {
		fmt.Printf("index=%d height=%.0f prominence=%.0f\n", p.Index, p.Height, p.Prominence)
	}

	// Output:
	// index=1 height=3 prominence=2
	// index=3 height=8 prominence=8
	// index=5 height=5 prominence=3
}
