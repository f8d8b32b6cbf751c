package features

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// SysSampler reads host CPU and memory load. Both values are normalized to
// [0,1]. Reading them costs milliseconds in the worst case, so callers cache
// the result; samplers themselves are stateless.
type SysSampler interface {
	Sample() (cpuLoad, memLoad float64, err error)
}

// procSampler reads /proc/loadavg and /proc/meminfo. No third-party library
// in our stack covers host load sampling, and the two files parse in a few
// lines.
type procSampler struct {
	numCPU float64
}

// NewProcSampler returns the /proc-backed sampler used in production.
func NewProcSampler() SysSampler {
	return &procSampler{numCPU: float64(runtime.NumCPU())}
}

func (p *procSampler) Sample() (float64, float64, error) {
	cpu, err := p.cpuLoad()
	if err != nil {
		return 0, 0, err
	}
	mem, err := p.memLoad()
	if err != nil {
		return 0, 0, err
	}
	return cpu, mem, nil
}

// cpuLoad normalizes the 1-minute load average by core count.
func (p *procSampler) cpuLoad() (float64, error) {
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return 0, fmt.Errorf("read loadavg: %w", err)
	}
	fields := bytes.Fields(data)
	if len(fields) == 0 {
		return 0, fmt.Errorf("loadavg: empty file")
	}
	load1, err := strconv.ParseFloat(string(fields[0]), 64)
	if err != nil {
		return 0, fmt.Errorf("loadavg: parse %q: %w", fields[0], err)
	}
	return load1 / p.numCPU, nil
}

// memLoad returns 1 - MemAvailable/MemTotal.
func (p *procSampler) memLoad() (float64, error) {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0, fmt.Errorf("read meminfo: %w", err)
	}

	var total, available float64
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		fields := bytes.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch string(fields[0]) {
		case "MemTotal:":
			total, _ = strconv.ParseFloat(string(fields[1]), 64)
		case "MemAvailable:":
			available, _ = strconv.ParseFloat(string(fields[1]), 64)
		}
		if total > 0 && available > 0 {
			break
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("meminfo: MemTotal not found")
	}
	return 1 - available/total, nil
}
