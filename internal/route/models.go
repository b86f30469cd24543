package route

import (
	"time"

	"github.com/Bera0422/WalkWays/internal/shared/geo"
)

type Route struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	DistanceM     float64     `json:"distance_m"`
	EstimatedMin  int64       `json:"estimated_min"`
	Elevation     string      `json:"elevation"`
	Rating        int         `json:"rating"`
	ReviewCount   int         `json:"review_count"`
	DisplayOnHome bool        `json:"display_on_home"`
	ImageURLs     []string    `json:"image_urls"`
	Waypoints     []geo.Point `json:"waypoints"`
	TagIDs        []string    `json:"tag_ids"`
	CreatedBy     string      `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Meta is the user-entered part of a saved route; the geometry, distance
// and time come from the recording finalizer.
type Meta struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Elevation     string   `json:"elevation"`
	Rating        int      `json:"rating"`
	TagIDs        []string `json:"tag_ids"`
	ImageURLs     []string `json:"image_urls"`
	DisplayOnHome bool     `json:"display_on_home"`
	CreatedBy     string   `json:"created_by"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}
