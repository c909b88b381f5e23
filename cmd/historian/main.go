// The historian drains the match history queue from Redis and persists the
// records to PostgreSQL. It runs separately from the game server so play is
// never blocked on the database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/scriptcoffee/challenge/internal/database"
	"github.com/scriptcoffee/challenge/internal/history"
)

// Historian pops records from the Redis queue, batches the high-volume
// action records and writes match outcomes straight through.
type Historian struct {
	redisClient *redis.Client
	queueName   string
	batchSize   int
	flushDelay  time.Duration

	batchMu sync.Mutex
	batch   []history.ActionRecord

	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewHistorian constructs a Historian from environment variables or
// defaults.
func NewHistorian() *Historian {
	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		DB:   getEnvInt("REDIS_DB", 0),
	})

	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	ctx, cancel := context.WithCancel(context.Background())
	return &Historian{
		redisClient: rdb,
		queueName:   getEnv("JASS_HISTORY_QUEUE", history.DefaultQueueName),
		batchSize:   batchSize,
		flushDelay:  time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		batch:       make([]history.ActionRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run connects to the database and drains the queue until Stop is called.
func (h *Historian) Run() {
	database.ConnectDB()

	go h.readQueueLoop()

	log.Println("jass-historian service started.")
	<-h.ctx.Done()
	h.flushBatch()
	log.Println("jass-historian shutting down.")
}

// Stop gracefully stops the historian.
func (h *Historian) Stop() {
	h.cancelFn()
}

// readQueueLoop BLPops records off the queue. A short pop timeout keeps
// the loop responsive to shutdown, and the ticker bounds how long a
// non-full batch may linger.
func (h *Historian) readQueueLoop() {
	ticker := time.NewTicker(h.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case <-ticker.C:
			h.flushBatch()

		default:
			res, err := h.redisClient.BLPop(h.ctx, 3*time.Second, h.queueName).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && h.ctx.Err() == nil {
					log.Printf("[ERROR] BLPop: %v", err)
				}
				continue
			}
			if len(res) < 2 {
				continue
			}
			h.dispatch([]byte(res[1]))
		}
	}
}

// dispatch routes one raw queue entry: action records carry an "action"
// field, match records a "session_id".
func (h *Historian) dispatch(raw []byte) {
	var probe struct {
		Action    string `json:"action"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		log.Printf("invalid history record: %v", err)
		return
	}

	switch {
	case probe.Action != "":
		var rec history.ActionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Printf("invalid action record: %v", err)
			return
		}
		h.appendToBatch(rec)

	case probe.SessionID != "":
		var rec history.MatchRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Printf("invalid match record: %v", err)
			return
		}
		if err := database.InsertMatch(context.Background(), rec); err != nil {
			log.Printf("[ERROR] InsertMatch: %v", err)
		} else {
			log.Printf("Persisted match %s (%s won).", rec.SessionName, rec.WinnerTeam)
		}

	default:
		log.Printf("unrecognized history record: %s", raw)
	}
}

func (h *Historian) appendToBatch(rec history.ActionRecord) {
	h.batchMu.Lock()
	h.batch = append(h.batch, rec)
	full := len(h.batch) >= h.batchSize
	h.batchMu.Unlock()
	if full {
		h.flushBatch()
	}
}

// flushBatch writes the accumulated action records in one transaction.
func (h *Historian) flushBatch() {
	h.batchMu.Lock()
	if len(h.batch) == 0 {
		h.batchMu.Unlock()
		return
	}
	batch := make([]history.ActionRecord, len(h.batch))
	copy(batch, h.batch)
	h.batch = h.batch[:0]
	h.batchMu.Unlock()

	ctx := context.Background()
	err := pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batch {
			if err := database.InsertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("InsertActionTx: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] flushBatch: %v", err)
	} else {
		log.Printf("Flushed %d actions to DB.", len(batch))
	}
}

func main() {
	h := NewHistorian()
	go h.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	h.Stop()
	log.Println("Historian shutdown complete.")
}

func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
