// Package history publishes completed-match and game-action records onto a
// Redis queue for the historian service to persist. Publishing is strictly
// fire-and-forget; when no Redis is configured every call is a no-op so
// game flow never depends on it.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. It stays nil unless Connect succeeds.
var Rdb *redis.Client

// DefaultQueueName is the Redis list the records are pushed onto.
var DefaultQueueName = "jass_matches"

// ActionRecord is one in-game event worth archiving (trump choice, trick
// result).
type ActionRecord struct {
	GameID    uuid.UUID              `json:"game_id"`
	Action    string                 `json:"action"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// MatchRecord is the outcome of one completed match.
type MatchRecord struct {
	SessionID    uuid.UUID `json:"session_id"`
	SessionName  string    `json:"session_name"`
	WinnerTeam   string    `json:"winner_team"`
	Winners      []string  `json:"winners"`
	Losers       []string  `json:"losers"`
	WinnerPoints int       `json:"winner_points"`
	LoserPoints  int       `json:"loser_points"`
	Forfeited    bool      `json:"forfeited"`
	Timestamp    int64     `json:"timestamp"`
}

// Connect initializes the global client from REDIS_ADDR and REDIS_DB.
// Callers may ignore the error and run without history.
func Connect() error {
	addr := getEnv("REDIS_ADDR", "")
	if addr == "" {
		return fmt.Errorf("REDIS_ADDR not set, history disabled")
	}

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   getEnvInt("REDIS_DB", 0),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishAction pushes one action record to the queue. No-op without a
// connected client.
func PublishAction(ctx context.Context, record ActionRecord) error {
	if Rdb == nil {
		return nil
	}
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().UnixMilli()
	}
	return push(ctx, record)
}

// PublishMatchResult pushes one match outcome to the queue. No-op without a
// connected client.
func PublishMatchResult(ctx context.Context, record MatchRecord) error {
	if Rdb == nil {
		return nil
	}
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().UnixMilli()
	}
	return push(ctx, record)
}

func push(ctx context.Context, record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	queueName := getEnv("JASS_HISTORY_QUEUE", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
