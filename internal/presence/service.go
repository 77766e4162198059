// Package presence tracks which teammates are currently viewing a thread.
// Backed by Redis TTL keys: a viewer is whoever heartbeated within the last
// interval. Presence is best-effort; a Redis outage degrades to "nobody
// here", never to a request failure.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 45 * time.Second

// Viewer is one teammate currently looking at a thread.
type Viewer struct {
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	SeenAt   time.Time `json:"seen_at"`
}

// Service stores presence heartbeats in Redis.
type Service struct {
	client *redis.Client
	ttl    time.Duration
}

func NewService(addr, password string) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("[Presence] Connected to Redis at %s", addr)
	return &Service{client: client, ttl: defaultTTL}, nil
}

// NewServiceWithClient wraps an existing client, mainly for tests.
func NewServiceWithClient(client *redis.Client) *Service {
	return &Service{client: client, ttl: defaultTTL}
}

func (s *Service) key(threadID, userID string) string {
	return "presence:" + threadID + ":" + userID
}

// Heartbeat marks a user as viewing a thread for the next TTL window.
func (s *Service) Heartbeat(ctx context.Context, threadID, userID, userName string) {
	viewer := Viewer{
		UserID:   userID,
		UserName: userName,
		SeenAt:   time.Now(),
	}

	data, err := json.Marshal(viewer)
	if err != nil {
		log.Printf("[Presence] Failed to marshal viewer: %v", err)
		return
	}

	if err := s.client.Set(ctx, s.key(threadID, userID), data, s.ttl).Err(); err != nil {
		log.Printf("[Presence] Heartbeat failed for thread %s: %v", threadID, err)
	}
}

// Leave drops a user's presence immediately instead of waiting for expiry.
func (s *Service) Leave(ctx context.Context, threadID, userID string) {
	if err := s.client.Del(ctx, s.key(threadID, userID)).Err(); err != nil {
		log.Printf("[Presence] Leave failed for thread %s: %v", threadID, err)
	}
}

// Viewers lists everyone with a live heartbeat on a thread. Errors return
// an empty list.
func (s *Service) Viewers(ctx context.Context, threadID string) []Viewer {
	pattern := "presence:" + threadID + ":*"

	var viewers []Viewer
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue // expired between scan and get
		}

		var v Viewer
		if err := json.Unmarshal(data, &v); err != nil {
			continue
		}
		viewers = append(viewers, v)
	}
	if err := iter.Err(); err != nil {
		log.Printf("[Presence] Failed to scan viewers for thread %s: %v", threadID, err)
		return nil
	}

	return viewers
}
