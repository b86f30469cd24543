// Package snapshot persists walk session checkpoints in Redis so a session
// survives app backgrounding and process death.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Bera0422/WalkWays/internal/walk"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "walkways:snapshot:"

// Snapshots are crash-recovery state, not history; they expire on their
// own if a device never comes back.
const snapshotTTL = 24 * time.Hour

// Store implements walk.SnapshotStore on Redis.
type Store struct {
	redis *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{redis: client}
}

func (s *Store) Save(ctx context.Context, key string, snap walk.Snapshot) error {
	if s.redis == nil {
		return errors.New("snapshot: redis not configured")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, keyPrefix+key, payload, snapshotTTL).Err()
}

func (s *Store) Load(ctx context.Context, key string) (walk.Snapshot, bool, error) {
	if s.redis == nil {
		return walk.Snapshot{}, false, errors.New("snapshot: redis not configured")
	}
	payload, err := s.redis.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return walk.Snapshot{}, false, nil
	}
	if err != nil {
		return walk.Snapshot{}, false, err
	}

	var snap walk.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		// A corrupt snapshot is as good as no snapshot.
		return walk.Snapshot{}, false, nil
	}
	return snap, true, nil
}

func (s *Store) Clear(ctx context.Context, key string) error {
	if s.redis == nil {
		return errors.New("snapshot: redis not configured")
	}
	return s.redis.Del(ctx, keyPrefix+key).Err()
}
