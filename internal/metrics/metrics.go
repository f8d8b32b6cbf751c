// Package metrics aggregates per-cycle pipeline timings over a bounded
// rolling window.
//
// The window is written only by the orchestrator thread; health checks read
// it concurrently through Snapshot. Access is serialized with a mutex held
// for short critical sections (a handful of slice writes or one pass over
// the ring). The lock means readers never observe a torn ring, at the cost
// of a microsecond-scale wait; lock-free counters were rejected because the
// window has to expose averages over a consistent set of samples.
package metrics

import (
	"sync"
	"time"
)

// DefaultWindow is the default ring capacity: 300 cycles, about five
// seconds at 60 Hz.
const DefaultWindow = 300

// Window is a bounded rolling window of per-cycle durations plus monotonic
// counters. Oldest samples are overwritten first.
type Window struct {
	mu sync.Mutex

	capacity  int
	cycles    []time.Duration // total cycle durations
	inference []time.Duration // accelerator call durations
	stamps    []time.Time     // cycle completion times, for measured FPS
	next      int             // ring write position
	filled    int             // number of valid samples

	totalFrames uint64
	cycleErrors uint64
	overruns    uint64
}

// NewWindow creates a window with the given ring capacity. Non-positive
// capacities fall back to DefaultWindow.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindow
	}
	return &Window{
		capacity:  capacity,
		cycles:    make([]time.Duration, capacity),
		inference: make([]time.Duration, capacity),
		stamps:    make([]time.Time, capacity),
	}
}

// RecordCycle stores one completed cycle's total and inference durations.
func (w *Window) RecordCycle(total, inference time.Duration) {
	now := time.Now()

	w.mu.Lock()
	w.cycles[w.next] = total
	w.inference[w.next] = inference
	w.stamps[w.next] = now
	w.next = (w.next + 1) % w.capacity
	if w.filled < w.capacity {
		w.filled++
	}
	w.totalFrames++
	w.mu.Unlock()
}

// RecordError counts a transient per-cycle fault.
func (w *Window) RecordError() {
	w.mu.Lock()
	w.cycleErrors++
	w.mu.Unlock()
}

// RecordOverrun counts a cycle that exceeded the frame budget.
func (w *Window) RecordOverrun() {
	w.mu.Lock()
	w.overruns++
	w.mu.Unlock()
}

// Snapshot is a point-in-time aggregate of the window.
type Snapshot struct {
	FPS            float64 `json:"fps"`
	AvgFrameMS     float64 `json:"avg_frame_ms"`
	AvgInferenceMS float64 `json:"avg_inference_ms"`
	TotalFrames    uint64  `json:"total_frames"`
	CycleErrors    uint64  `json:"cycle_errors"`
	Overruns       uint64  `json:"overruns"`
	WindowSize     int     `json:"window_size"`
}

// Snapshot aggregates the current window. Safe to call from any goroutine.
func (w *Window) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		TotalFrames: w.totalFrames,
		CycleErrors: w.cycleErrors,
		Overruns:    w.overruns,
		WindowSize:  w.filled,
	}
	if w.filled == 0 {
		return snap
	}

	var cycleSum, inferSum time.Duration
	oldest := w.stamps[w.oldestIndex()]
	newest := w.stamps[(w.next-1+w.capacity)%w.capacity]
	for i := 0; i < w.filled; i++ {
		idx := (w.oldestIndex() + i) % w.capacity
		cycleSum += w.cycles[idx]
		inferSum += w.inference[idx]
	}

	snap.AvgFrameMS = float64(cycleSum.Microseconds()) / float64(w.filled) / 1000
	snap.AvgInferenceMS = float64(inferSum.Microseconds()) / float64(w.filled) / 1000
	if span := newest.Sub(oldest); span > 0 && w.filled > 1 {
		snap.FPS = float64(w.filled-1) / span.Seconds()
	}
	return snap
}

// Reset clears the window and counters. Only used on restart.
func (w *Window) Reset() {
	w.mu.Lock()
	w.next = 0
	w.filled = 0
	w.totalFrames = 0
	w.cycleErrors = 0
	w.overruns = 0
	w.mu.Unlock()
}

// oldestIndex returns the ring index of the oldest valid sample. Caller
// holds the lock.
func (w *Window) oldestIndex() int {
	if w.filled < w.capacity {
		return 0
	}
	return w.next
}
