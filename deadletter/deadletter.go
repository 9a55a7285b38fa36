// Package deadletter implements the dead-letter replay queue spec.md
// §4.5/§7 routes FHIR writes to once their retry budget is exhausted:
// a single Redis list whose entries each carry their ingest_id, with a
// Slack alert once the backlog crosses a threshold.
package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/slack-go/slack"
)

const queueKey = "vitalgate:deadletter:fhir"

// Entry is one dead-lettered FHIR write, replayable by ingest_id.
type Entry struct {
	IngestID   string          `json:"ingest_id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Reason     string          `json:"reason"`
	DeadLetteredAt time.Time   `json:"dead_lettered_at"`
}

// Queue is the Redis-backed dead-letter store.
type Queue struct {
	rdb             *redis.Client
	slack           *slack.Client
	slackChannel    string
	alertThreshold  int64
}

// New builds a Queue. slackClient/slackChannel may be left zero-valued
// to disable alerting (tests and local runs commonly do this).
func New(rdb *redis.Client, slackClient *slack.Client, slackChannel string, alertThreshold int64) *Queue {
	if alertThreshold <= 0 {
		alertThreshold = 100
	}
	return &Queue{rdb: rdb, slack: slackClient, slackChannel: slackChannel, alertThreshold: alertThreshold}
}

// Push enqueues a failed FHIR write and alerts if the backlog has grown
// past the configured threshold.
func (q *Queue) Push(ctx context.Context, e Entry) error {
	e.DeadLetteredAt = time.Now()
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("deadletter: marshal entry %s: %w", e.IngestID, err)
	}
	if err := q.rdb.RPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("deadletter: push entry %s: %w", e.IngestID, err)
	}

	depth, err := q.rdb.LLen(ctx, queueKey).Result()
	if err == nil && depth >= q.alertThreshold {
		q.alertBacklog(ctx, depth)
	}
	return nil
}

// Pop removes and returns the oldest entry for replay, or ok=false if the
// queue is empty.
func (q *Queue) Pop(ctx context.Context) (Entry, bool, error) {
	data, err := q.rdb.LPop(ctx, queueKey).Bytes()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("deadletter: pop: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("deadletter: decode entry: %w", err)
	}
	return e, true, nil
}

// Depth reports the current backlog size.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.rdb.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("deadletter: depth: %w", err)
	}
	return depth, nil
}

func (q *Queue) alertBacklog(ctx context.Context, depth int64) {
	if q.slack == nil || q.slackChannel == "" {
		return
	}
	msg := fmt.Sprintf(":rotating_light: FHIR dead-letter backlog at %d entries (threshold %d)", depth, q.alertThreshold)
	_, _, _ = q.slack.PostMessageContext(ctx, q.slackChannel, slack.MsgOptionText(msg, false))
}
