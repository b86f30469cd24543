package walk

import (
	"time"

	"github.com/Bera0422/WalkWays/internal/shared/geo"
)

// Mode distinguishes following a published route from authoring a new one.
type Mode string

const (
	ModeTracking  Mode = "tracking"
	ModeRecording Mode = "recording"
)

// Waypoint is one accepted point in a session's trail. Seq is assigned by
// the trail at append time and is never reused or reordered.
type Waypoint struct {
	Seq    uint      `json:"seq"`
	Coords geo.Point `json:"coords"`
}

// Session is the live aggregate state of one tracking or recording run.
// The Controller is its sole mutator; everything else reads copies.
type Session struct {
	Mode      Mode
	RouteID   string
	StartedAt time.Time
	DistanceM float64
	Steps     uint64
	Trail     *Trail
	Active    bool
}

// Snapshot is the subset of session state persisted across app
// backgrounding and process death. The trail is deliberately not included;
// a resumed session keeps its timer and distance but re-seeds the trail
// from the next fix.
type Snapshot struct {
	Mode       Mode      `json:"mode"`
	RouteID    string    `json:"route_id"`
	StartedAt  time.Time `json:"started_at"`
	ElapsedSec int64     `json:"elapsed_sec"`
	DistanceM  float64   `json:"distance_m"`
	Steps      uint64    `json:"steps"`
	Active     bool      `json:"active"`
}

// Stats is the read-side view of an active session. ElapsedSec is derived
// from the start timestamp at read time, never from accumulated ticks.
type Stats struct {
	Mode            Mode    `json:"mode"`
	RouteID         string  `json:"route_id,omitempty"`
	ElapsedSec      int64   `json:"elapsed_sec"`
	DistanceM       float64 `json:"distance_m"`
	Steps           uint64  `json:"steps"`
	TrailLen        int     `json:"trail_len"`
	InstructionText string  `json:"instruction_text,omitempty"`
	Active          bool    `json:"active"`
}

// RouteDraft is the finalizer's output: everything the route-authoring
// flow needs before the user adds name, description, tags and rating.
type RouteDraft struct {
	Waypoints  []geo.Point `json:"waypoints"`
	DistanceM  float64     `json:"distance_m"`
	ElapsedSec int64       `json:"elapsed_sec"`
}

// Finalize assembles a RouteDraft from an ended session. Pure data
// assembly; persistence belongs to the route-authoring collaborator.
func Finalize(s *Session, elapsedSec int64) RouteDraft {
	return RouteDraft{
		Waypoints:  s.Trail.Points(),
		DistanceM:  s.DistanceM,
		ElapsedSec: elapsedSec,
	}
}
