// Package accel wraps the edge inference accelerator: it loads the deployed
// model artifact, validates its shape against the pipeline configuration,
// and performs the INT8 quantize → invoke → dequantize sequence each cycle.
//
// The accelerator driver itself is external; this package talks to it
// through the Device interface and ships a deterministic simulator for
// development machines without the hardware.
package accel

import "errors"

// Sentinel errors. ErrUnavailable directs the orchestrator into degraded
// mode instead of retrying; ErrShapeMismatch means the artifact and the
// configuration disagree and the pipeline must not start.
var (
	ErrUnavailable   = errors.New("accel: accelerator unavailable")
	ErrShapeMismatch = errors.New("accel: model shape mismatch")
	ErrBadArtifact   = errors.New("accel: malformed model artifact")
)

// Device is the accelerator driver surface. Invoke is synchronous and not
// safely preemptible: callers let in-flight invocations complete rather
// than interrupting them.
type Device interface {
	// Probe checks the accelerator is physically present and responsive.
	Probe() error
	// Program loads a compiled graph blob onto the device.
	Program(graph []byte) error
	// Invoke runs one inference. input and output are caller-owned
	// buffers sized to the programmed graph's tensors.
	Invoke(input, output []int8) error
	// Close releases the device handle.
	Close() error
}
