package wizard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"healthtrip/models"
)

// Snapshot serializes the whitelisted subset of the draft: selections, dates,
// rates and the idempotency key. Derived price and transient flags stay out.
func (s *SelectionStore) Snapshot() models.DraftSnapshot {
	return models.DraftSnapshot{
		Version:        models.DraftSnapshotVersion,
		Treatment:      s.draft.Treatment,
		Logistics:      s.draft.Logistics,
		AddOns:         s.draft.AddOns,
		Notes:          s.draft.Notes,
		Rates:          s.draft.Rates,
		IdempotencyKey: s.draft.IdempotencyKey,
	}
}

// RestoreSnapshot rebuilds the draft from a persisted snapshot. A version
// mismatch fails closed: the store resets to empty and false is returned.
// Derived state is recomputed, never restored.
func (s *SelectionStore) RestoreSnapshot(snap models.DraftSnapshot) bool {
	if snap.Version != models.DraftSnapshotVersion {
		s.Reset()
		return false
	}
	s.Reset()
	s.draft.Treatment = snap.Treatment
	s.draft.Logistics = snap.Logistics
	s.draft.AddOns = snap.AddOns
	s.draft.Notes = snap.Notes
	s.draft.Rates = snap.Rates
	if snap.IdempotencyKey != "" {
		s.draft.IdempotencyKey = snap.IdempotencyKey
	}
	s.conflictPairChanged()
	s.recompute()
	return true
}

// PersistSnapshot writes the snapshot to the durable store.
func PersistSnapshot(ctx context.Context, store *SelectionStore, snapshots SnapshotStore, sessionID string) error {
	data, err := json.Marshal(store.Snapshot())
	if err != nil {
		return err
	}
	return snapshots.Save(ctx, sessionID, data)
}

// RestorePersistedSnapshot loads and applies a snapshot. Any failure, whether
// a missing key, a corrupt payload or a version mismatch, leaves the store
// empty and returns false; it never propagates a decoding error upward.
func RestorePersistedSnapshot(ctx context.Context, store *SelectionStore, snapshots SnapshotStore, sessionID string) bool {
	data, err := snapshots.Load(ctx, sessionID)
	if err != nil {
		store.Reset()
		return false
	}
	var snap models.DraftSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		store.Reset()
		return false
	}
	return store.RestoreSnapshot(snap)
}

const snapshotKeyPrefix = "wizard:snapshot:"

// RedisSnapshotStore keeps draft snapshots in Redis with a sliding TTL, the
// same way booking sessions are cached elsewhere in the stack.
type RedisSnapshotStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{Client: client, TTL: ttl}
}

func (r *RedisSnapshotStore) Save(ctx context.Context, sessionID string, data []byte) error {
	return r.Client.Set(ctx, snapshotKeyPrefix+sessionID, data, r.TTL).Err()
}

func (r *RedisSnapshotStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	return r.Client.Get(ctx, snapshotKeyPrefix+sessionID).Bytes()
}

func (r *RedisSnapshotStore) Delete(ctx context.Context, sessionID string) error {
	return r.Client.Del(ctx, snapshotKeyPrefix+sessionID).Err()
}
