package listcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/xxxsen/projdesk/internal/config"
	"github.com/xxxsen/projdesk/internal/model"
)

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redisv9.Client, error) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}
	return client, nil
}

// Redis stores one hash per project with a field per user, so a single DEL invalidates the project.
// A counter key per project carries the generation checked by Set.
type Redis struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedis(client *redisv9.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, projectID, userID string) ([]model.Document, bool, error) {
	raw, err := r.client.HGet(ctx, projectKey(projectID), userID).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get file list failed: %w", err)
	}
	var docs []model.Document
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached file list failed: %w", err)
	}
	return docs, true, nil
}

func (r *Redis) Generation(ctx context.Context, projectID string) (uint64, error) {
	gen, err := r.readGeneration(ctx, r.client, projectID)
	if err != nil {
		return 0, fmt.Errorf("redis get file list generation failed: %w", err)
	}
	return gen, nil
}

func (r *Redis) readGeneration(ctx context.Context, cmd redisv9.Cmdable, projectID string) (uint64, error) {
	gen, err := cmd.Get(ctx, generationKey(projectID)).Uint64()
	if errors.Is(err, redisv9.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *Redis) Set(ctx context.Context, projectID, userID string, gen uint64, docs []model.Document) error {
	payload, err := json.Marshal(stripContent(docs))
	if err != nil {
		return fmt.Errorf("marshal file list failed: %w", err)
	}
	key := projectKey(projectID)
	err = r.client.Watch(ctx, func(tx *redisv9.Tx) error {
		current, err := r.readGeneration(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
			pipe.HSet(ctx, key, userID, payload)
			pipe.Expire(ctx, key, r.ttl)
			return nil
		})
		return err
	}, generationKey(projectID))
	if errors.Is(err, redisv9.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis set file list failed: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, projectID string) error {
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, generationKey(projectID))
	pipe.Del(ctx, projectKey(projectID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete file list failed: %w", err)
	}
	return nil
}

func projectKey(projectID string) string {
	return "projdesk:files:" + projectID
}

func generationKey(projectID string) string {
	return "projdesk:files:gen:" + projectID
}
