package feedback

import (
	"context"
	"errors"
	"time"

	"github.com/Bera0422/WalkWays/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// RecordWalk writes a completed tracked walk to the user's history.
func (s *Service) RecordWalk(ctx context.Context, rec WalkRecord) (WalkRecord, error) {
	rec.ID = uuid.NewString()
	if rec.WalkedAt.IsZero() {
		rec.WalkedAt = time.Now()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO walk_history (id, user_id, route_id, distance_m, duration_sec, steps, walked_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, rec.ID, rec.UserID, rec.RouteID, rec.DistanceM, rec.DurationSec, rec.Steps, rec.WalkedAt)
	if err != nil {
		return WalkRecord{}, err
	}
	return rec, nil
}

// HasWalked reports whether the user has a history entry for the route.
func (s *Service) HasWalked(ctx context.Context, routeID, userID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM walk_history WHERE route_id=$1 AND user_id=$2
		)
	`, routeID, userID).Scan(&ok)
	return ok, err
}

// Submit upserts the user's rating and comment for a route they have
// actually walked; one feedback row per (route, user).
func (s *Service) Submit(ctx context.Context, routeID, userID string, rating int, comment string) (Feedback, error) {
	if rating < 1 || rating > 5 {
		return Feedback{}, errors.New("rating must be between 1 and 5")
	}

	walked, err := s.HasWalked(ctx, routeID, userID)
	if err != nil {
		return Feedback{}, err
	}
	if !walked {
		return Feedback{}, errors.New("user has not walked this route")
	}

	fb := Feedback{
		ID:      uuid.NewString(),
		RouteID: routeID,
		UserID:  userID,
		Rating:  rating,
		Comment: comment,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO route_feedback (id, route_id, user_id, rating, comment)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (route_id, user_id) DO UPDATE
		SET rating=EXCLUDED.rating, comment=EXCLUDED.comment
		RETURNING created_at
	`, fb.ID, fb.RouteID, fb.UserID, fb.Rating, fb.Comment)
	if err := row.Scan(&fb.CreatedAt); err != nil {
		return Feedback{}, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE routes
		SET rating = sub.avg_rating, review_count = sub.cnt
		FROM (
			SELECT ROUND(AVG(rating)) AS avg_rating, COUNT(*) AS cnt
			FROM route_feedback WHERE route_id=$1
		) sub
		WHERE id=$1
	`, routeID)
	if err != nil {
		return Feedback{}, err
	}
	return fb, nil
}

// ForRoute lists a route's feedback, newest first.
func (s *Service) ForRoute(ctx context.Context, routeID string) ([]Feedback, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, route_id, user_id, rating, comment, created_at
		FROM route_feedback WHERE route_id=$1
		ORDER BY created_at DESC
	`, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		var fb Feedback
		if err := rows.Scan(&fb.ID, &fb.RouteID, &fb.UserID, &fb.Rating, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, nil
}

// History lists the user's completed walks, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]WalkRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, route_id, distance_m, duration_sec, steps, walked_at
		FROM walk_history WHERE user_id=$1
		ORDER BY walked_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WalkRecord
	for rows.Next() {
		var rec WalkRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.RouteID, &rec.DistanceM, &rec.DurationSec, &rec.Steps, &rec.WalkedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
