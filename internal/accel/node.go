package accel

import (
	"fmt"
	"io"
	"os"
)

// NodeDevice drives an accelerator exposed as a character device node. The
// node speaks a plain write/read protocol: Program writes the graph blob,
// Invoke writes the quantized input tensor and reads back the output tensor.
type NodeDevice struct {
	path string
	f    *os.File
}

// OpenNode creates a device on the given node path. The node is opened
// lazily by Probe so a missing accelerator surfaces as a probe failure, not
// a construction error.
func OpenNode(path string) *NodeDevice {
	return &NodeDevice{path: path}
}

// Probe opens the device node. A missing or unopenable node means the
// accelerator is absent.
func (d *NodeDevice) Probe() error {
	if d.f != nil {
		return nil
	}
	f, err := os.OpenFile(d.path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", d.path, err)
	}
	d.f = f
	return nil
}

// Program writes the compiled graph onto the device.
func (d *NodeDevice) Program(graph []byte) error {
	if d.f == nil {
		return fmt.Errorf("device not probed")
	}
	if _, err := d.f.Write(graph); err != nil {
		return fmt.Errorf("program %s: %w", d.path, err)
	}
	return nil
}

// Invoke writes the input tensor and reads the output tensor back.
func (d *NodeDevice) Invoke(input, output []int8) error {
	if d.f == nil {
		return fmt.Errorf("device not probed")
	}

	in := make([]byte, len(input))
	for i, q := range input {
		in[i] = byte(q)
	}
	if _, err := d.f.Write(in); err != nil {
		return fmt.Errorf("invoke write: %w", err)
	}

	out := make([]byte, len(output))
	if _, err := io.ReadFull(d.f, out); err != nil {
		return fmt.Errorf("invoke read: %w", err)
	}
	for i, b := range out {
		output[i] = int8(b)
	}
	return nil
}

// Close releases the node handle.
func (d *NodeDevice) Close() error {
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}
