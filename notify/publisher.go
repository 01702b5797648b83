package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types
const (
	IssueStatusChanged     = "ISSUE_STATUS_CHANGED"
	IssueAssigned          = "ISSUE_ASSIGNED"
	NewComment             = "NEW_COMMENT"
	WorkOrderStatusChanged = "WORKORDER_STATUS_CHANGED"
)

// Event is the payload consumers receive on the notification channels.
type Event struct {
	Type      string             `json:"type"`
	Recipient primitive.ObjectID `json:"recipient"`
	Issue     primitive.ObjectID `json:"issue"`
	Message   string             `json:"message"`
	Data      map[string]any     `json:"data,omitempty"`
	At        time.Time          `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// RedisPublisher fans each event out to the shared channel and, when the
// event has a recipient, to "<channel>:<userID>".
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if !ev.Recipient.IsZero() {
		userChannel := fmt.Sprintf("%s:%s", p.channel, ev.Recipient.Hex())
		if err := p.client.Publish(ctx, userChannel, payload).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", userChannel, err)
		}
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// Nop drops every event. Used when Redis is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.Events = append(r.Events, ev)
	return nil
}
