package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/exportdesk/api/internal/model"
)

// Store writes finished jobs to Redis so operators can inspect them after
// the scheduler has evicted them. Write-only and best effort: a nil client
// disables archiving, and write errors are logged and dropped.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore creates a Store. redisClient may be nil to disable archiving.
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{redis: redisClient, ttl: ttl}
}

// Archive persists a snapshot of a terminal job.
func (s *Store) Archive(ctx context.Context, job model.ExportJob) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(job)
	if err != nil {
		log.Printf("Failed to marshal job %s for archive: %v", job.ID, err)
		return
	}

	key := fmt.Sprintf("export:job:%s", job.ID)
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		log.Printf("Failed to archive job %s: %v", job.ID, err)
	}
}
