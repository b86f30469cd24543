package feedback

import "time"

type Feedback struct {
	ID        string    `json:"id"`
	RouteID   string    `json:"route_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// WalkRecord is one completed tracked walk, written when a tracking
// session ends and shown in the user's walk history.
type WalkRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	RouteID     string    `json:"route_id"`
	DistanceM   float64   `json:"distance_m"`
	DurationSec int64     `json:"duration_sec"`
	Steps       uint64    `json:"steps"`
	WalkedAt    time.Time `json:"walked_at"`
}
