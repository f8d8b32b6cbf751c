// Package snapshot supplies the extractor with the latest merged world
// snapshot. Sensor subsystems publish their sections independently; the
// provider keeps only the most recent value per section (latest-value
// semantics, no queue), so the pipeline always reads a coherent, current
// view and a slow sensor can never stall a cycle.
package snapshot

import "github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"

// Provider hands out the most recent world snapshot. Latest returns a value
// copy: the caller may read it for a full cycle without holding any lock.
type Provider interface {
	Latest() types.WorldSnapshot
}
