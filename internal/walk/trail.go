package walk

import "github.com/Bera0422/WalkWays/internal/shared/geo"

// Trail is the ordered, append-only log of accepted waypoints for one
// session. Sequence numbers are strictly increasing with no gaps.
type Trail struct {
	points []Waypoint
}

func NewTrail() *Trail {
	return &Trail{}
}

// Append records an accepted point and returns its waypoint.
func (t *Trail) Append(p geo.Point) Waypoint {
	wp := Waypoint{Seq: uint(len(t.points)), Coords: p}
	t.points = append(t.points, wp)
	return wp
}

func (t *Trail) Len() int {
	return len(t.points)
}

// Waypoints returns a copy of the trail in sequence order.
func (t *Trail) Waypoints() []Waypoint {
	out := make([]Waypoint, len(t.points))
	copy(out, t.points)
	return out
}

// Points returns the trail's coordinates in sequence order, for the
// recording finalizer.
func (t *Trail) Points() []geo.Point {
	out := make([]geo.Point, len(t.points))
	for i, wp := range t.points {
		out[i] = wp.Coords
	}
	return out
}

// Batches partitions the trail into contiguous windows of at most maxSize
// waypoints. Directions and map-rendering providers cap the waypoint count
// per request; boundaries are purely mechanical chunking.
func (t *Trail) Batches(maxSize int) [][]Waypoint {
	if maxSize <= 0 {
		maxSize = DefaultBatchSize
	}
	var batches [][]Waypoint
	for i := 0; i < len(t.points); i += maxSize {
		end := i + maxSize
		if end > len(t.points) {
			end = len(t.points)
		}
		batch := make([]Waypoint, end-i)
		copy(batch, t.points[i:end])
		batches = append(batches, batch)
	}
	return batches
}

// DefaultBatchSize matches the Google Directions per-request waypoint cap.
const DefaultBatchSize = 25
