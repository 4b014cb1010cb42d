// Package progress mirrors running import progress into Redis so status
// polls do not hit the job table on every request.
//
// Snapshots are stored as JSON under import:progress:<job id> and expire
// after the configured TTL. The job row stays the source of truth; a missing
// key means "ask the database".
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// ErrNotFound is returned by Get when no snapshot is stored for the job.
var ErrNotFound = errors.New("progress snapshot not found")

const keyPrefix = "import:progress:"

// DefaultTTL is used when NewMirror is given a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// Mirror publishes and reads progress snapshots.
type Mirror struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMirror creates a mirror on an existing client.
func NewMirror(client *redis.Client, ttl time.Duration) *Mirror {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Mirror{client: client, ttl: ttl}
}

// Connect opens a client for addr and checks it with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

func key(jobID string) string {
	return keyPrefix + jobID
}

// Publish stores the snapshot, replacing any previous one for the job.
func (m *Mirror) Publish(ctx context.Context, p entities.ImportProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := m.client.Set(ctx, key(p.JobID), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("store progress for %s: %w", p.JobID, err)
	}
	return nil
}

// Get returns the latest snapshot for the job.
func (m *Mirror) Get(ctx context.Context, jobID string) (*entities.ImportProgress, error) {
	val, err := m.client.Get(ctx, key(jobID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read progress for %s: %w", jobID, err)
	}

	var p entities.ImportProgress
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("decode progress for %s: %w", jobID, err)
	}
	return &p, nil
}

// Delete drops the snapshot for the job.
func (m *Mirror) Delete(ctx context.Context, jobID string) error {
	return m.client.Del(ctx, key(jobID)).Err()
}

// Ping checks the Redis connection.
func (m *Mirror) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}
