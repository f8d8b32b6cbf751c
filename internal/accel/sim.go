package accel

import (
	"fmt"
	"math"
)

// SimDevice is a deterministic software stand-in for the accelerator, used
// on development machines without the hardware and throughout the tests. It
// ignores the graph contents and synthesizes a smooth particle field from
// the input vector, so the downstream pipeline sees plausible motion.
type SimDevice struct {
	programmed  bool
	invocations uint64
}

// NewSimDevice returns an unprogrammed simulator.
func NewSimDevice() *SimDevice {
	return &SimDevice{}
}

// Probe always succeeds: the simulator is its own hardware.
func (d *SimDevice) Probe() error {
	return nil
}

// Program accepts any non-empty graph blob.
func (d *SimDevice) Program(graph []byte) error {
	if len(graph) == 0 {
		return fmt.Errorf("sim: empty graph blob")
	}
	d.programmed = true
	return nil
}

// Invoke fills the output with a deterministic function of the input:
// each output element is a bounded sinusoid over a weighted input sum, so
// equal inputs always produce equal outputs and nearby inputs produce
// nearby fields.
func (d *SimDevice) Invoke(input, output []int8) error {
	if !d.programmed {
		return fmt.Errorf("sim: device not programmed")
	}
	d.invocations++

	var sum float64
	for i, q := range input {
		sum += float64(q) * float64(i+1) / float64(len(input))
	}

	for i := range output {
		v := math.Sin(sum/16 + float64(i)*0.37)
		output[i] = int8(v * 100)
	}
	return nil
}

// Invocations reports how many inferences ran, including warm-up.
func (d *SimDevice) Invocations() uint64 {
	return d.invocations
}

// Close is a no-op.
func (d *SimDevice) Close() error {
	return nil
}
