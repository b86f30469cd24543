package walk

import "github.com/Bera0422/WalkWays/internal/shared/geo"

// Instruction is one turn-by-turn step from the directions provider,
// anchored at the geographic location where it applies.
type Instruction struct {
	Text   string    `json:"text"`
	Anchor geo.Point `json:"anchor"`
}

// ProgressMatcher matches the live position stream against a route's
// instruction anchors. Anchors within the proximity threshold are marked
// visited exactly once; the current-instruction pointer only moves forward.
//
// With zero instructions (directions provider failure) the matcher reports
// no instruction text and tracking continues unaffected.
type ProgressMatcher struct {
	instructions []Instruction
	proximityM   float64
	visited      map[int]struct{}
	current      int
}

func NewProgressMatcher(instructions []Instruction, proximityM float64) *ProgressMatcher {
	return &ProgressMatcher{
		instructions: instructions,
		proximityM:   proximityM,
		visited:      make(map[int]struct{}),
	}
}

// OnPosition scans for the nearest unvisited anchor within the proximity
// threshold. Ties resolve by nearest distance, then lowest index. Returns
// the current instruction index and whether it advanced.
func (m *ProgressMatcher) OnPosition(p geo.Point) (int, bool) {
	best := -1
	bestDist := 0.0
	for i, ins := range m.instructions {
		if _, ok := m.visited[i]; ok {
			continue
		}
		d := geo.DistanceMeters(ins.Anchor, p)
		if d >= m.proximityM {
			continue
		}
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best == -1 {
		return m.current, false
	}

	m.visited[best] = struct{}{}
	if best > m.current {
		m.current = best
	}
	return m.current, true
}

// Current returns the index of the current instruction.
func (m *ProgressMatcher) Current() int {
	return m.current
}

// CurrentText returns the current instruction's text, or "" when the
// provider returned no instructions.
func (m *ProgressMatcher) CurrentText() string {
	if len(m.instructions) == 0 {
		return ""
	}
	return m.instructions[m.current].Text
}

// VisitedCount reports how many anchors have been reached.
func (m *ProgressMatcher) VisitedCount() int {
	return len(m.visited)
}
