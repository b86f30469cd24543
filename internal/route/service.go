package route

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Bera0422/WalkWays/internal/db"
	"github.com/Bera0422/WalkWays/internal/shared/geo"
	"github.com/Bera0422/WalkWays/internal/walk"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// SaveRoute persists a finalized recording plus its user-entered metadata
// as a browsable route. A freshly saved route carries its author's rating
// as the first review.
func (s *Service) SaveRoute(ctx context.Context, draft walk.RouteDraft, meta Meta) (Route, error) {
	if meta.Name == "" {
		return Route{}, errors.New("route name is required")
	}
	if len(draft.Waypoints) == 0 {
		return Route{}, errors.New("route has no waypoints")
	}

	waypoints, err := json.Marshal(draft.Waypoints)
	if err != nil {
		return Route{}, err
	}
	images, err := json.Marshal(meta.ImageURLs)
	if err != nil {
		return Route{}, err
	}

	r := Route{
		ID:            uuid.NewString(),
		Name:          meta.Name,
		Description:   meta.Description,
		DistanceM:     draft.DistanceM,
		EstimatedMin:  draft.ElapsedSec / 60,
		Elevation:     meta.Elevation,
		Rating:        meta.Rating,
		ReviewCount:   1,
		DisplayOnHome: meta.DisplayOnHome,
		ImageURLs:     meta.ImageURLs,
		Waypoints:     draft.Waypoints,
		TagIDs:        meta.TagIDs,
		CreatedBy:     meta.CreatedBy,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO routes (id, name, description, distance_m, estimated_min, elevation, rating, review_count, display_on_home, image_urls, waypoints, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at
	`, r.ID, r.Name, r.Description, r.DistanceM, r.EstimatedMin, r.Elevation, r.Rating, r.ReviewCount, r.DisplayOnHome, string(images), string(waypoints), r.CreatedBy)
	if err := row.Scan(&r.CreatedAt); err != nil {
		return Route{}, err
	}

	for _, tagID := range meta.TagIDs {
		_, err := s.db.Exec(ctx, `
			INSERT INTO route_tags (route_id, tag_id)
			VALUES ($1,$2)
			ON CONFLICT DO NOTHING
		`, r.ID, tagID)
		if err != nil {
			return Route{}, err
		}
	}
	return r, nil
}

// GetRoute returns one route with its full waypoint geometry.
func (s *Service) GetRoute(ctx context.Context, id string) (Route, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, description, distance_m, estimated_min, elevation, rating, review_count, display_on_home, image_urls, waypoints, created_by, created_at
		FROM routes WHERE id=$1
	`, id)

	var r Route
	var images, waypoints string
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.DistanceM, &r.EstimatedMin, &r.Elevation, &r.Rating, &r.ReviewCount, &r.DisplayOnHome, &images, &waypoints, &r.CreatedBy, &r.CreatedAt); err != nil {
		return Route{}, err
	}
	if err := json.Unmarshal([]byte(images), &r.ImageURLs); err != nil {
		return Route{}, err
	}
	if err := json.Unmarshal([]byte(waypoints), &r.Waypoints); err != nil {
		return Route{}, err
	}

	tagIDs, err := s.routeTags(ctx, r.ID)
	if err != nil {
		return Route{}, err
	}
	r.TagIDs = tagIDs
	return r, nil
}

// Waypoints returns a route's geometry for the tracking engine.
func (s *Service) Waypoints(ctx context.Context, id string) ([]geo.Point, error) {
	var raw string
	if err := s.db.QueryRow(ctx, `SELECT waypoints FROM routes WHERE id=$1`, id).Scan(&raw); err != nil {
		return nil, err
	}
	var points []geo.Point
	if err := json.Unmarshal([]byte(raw), &points); err != nil {
		return nil, err
	}
	return points, nil
}

// ListRoutes returns routes for browsing, optionally only those shared to
// the home feed. Geometry is omitted; list cards don't need it.
func (s *Service) ListRoutes(ctx context.Context, homeOnly bool) ([]Route, error) {
	query := `
		SELECT id, name, description, distance_m, estimated_min, elevation, rating, review_count, display_on_home, image_urls, created_by, created_at
		FROM routes
	`
	if homeOnly {
		query += ` WHERE display_on_home`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		var r Route
		var images string
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.DistanceM, &r.EstimatedMin, &r.Elevation, &r.Rating, &r.ReviewCount, &r.DisplayOnHome, &images, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(images), &r.ImageURLs); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, nil
}

// Tags returns the selectable route tags.
func (s *Service) Tags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, icon FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Icon); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (s *Service) routeTags(ctx context.Context, routeID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT tag_id FROM route_tags WHERE route_id=$1 ORDER BY tag_id`, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
