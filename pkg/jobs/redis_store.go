package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scout-sync-go/pkg/models"

	"github.com/redis/go-redis/v9"
)

const statusKeyPrefix = "scraping:task:"

// RedisStore shares task status across API replicas. Records expire after ttl.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(taskID string) string {
	return fmt.Sprintf("%s%s", statusKeyPrefix, taskID)
}

func (s *RedisStore) Save(ctx context.Context, task *models.ScrapingTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task status: %w", err)
	}
	if err := s.client.Set(ctx, s.key(task.TaskID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save task status: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, taskID string) (*models.ScrapingTask, error) {
	data, err := s.client.Get(ctx, s.key(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}

	var task models.ScrapingTask
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task status: %w", err)
	}
	return &task, nil
}

// NewRedisClient connects and verifies the server with a ping.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
