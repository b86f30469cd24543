package walk

import "github.com/Bera0422/WalkWays/internal/shared/geo"

// SampleFilter gates raw location fixes before they reach tracking logic.
// The first sample of a session is always accepted and seeds the trail;
// after that a fix must move more than minMoveM from the last accepted fix.
//
// Threshold gating is the full contract: there is no smoothing or outlier
// rejection, so true-path accuracy is bounded by raw GPS noise.
type SampleFilter struct {
	minMoveM float64
	last     geo.Point
	seeded   bool
}

func NewSampleFilter(minMoveM float64) *SampleFilter {
	return &SampleFilter{minMoveM: minMoveM}
}

// Accept reports whether raw passed the movement gate. Accepted samples
// become the new reference point for the next gate check.
func (f *SampleFilter) Accept(raw geo.Point) (geo.Point, bool) {
	if !f.seeded {
		f.seeded = true
		f.last = raw
		return raw, true
	}
	if geo.DistanceMeters(f.last, raw) <= f.minMoveM {
		return geo.Point{}, false
	}
	f.last = raw
	return raw, true
}
