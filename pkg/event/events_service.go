package event

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"taskboard-api/pkg/model"
)

type Table string

const (
	TableTasks    Table = "tasks"
	TableComments Table = "comments"
)

type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ChangeEvent is a row-level change notification on a watched table. Task
// events carry the row's status; comment events carry the comment id plus
// the owning task id.
type ChangeEvent struct {
	Table     Table        `json:"table"`
	Action    Action       `json:"action"`
	TaskID    string       `json:"taskId"`
	Status    model.Status `json:"status,omitempty"`
	CommentID string       `json:"commentId,omitempty"`
}

// Scope narrows a subscription. Zero fields are wildcards: an empty scope
// matches every event.
type Scope struct {
	Table  Table        `json:"table,omitempty"`
	TaskID string       `json:"taskId,omitempty"`
	Status model.Status `json:"status,omitempty"`
}

func (s Scope) Matches(ev ChangeEvent) bool {
	if s.Table != "" && s.Table != ev.Table {
		return false
	}
	if s.TaskID != "" && s.TaskID != ev.TaskID {
		return false
	}
	if s.Status != "" && s.Status != ev.Status {
		return false
	}
	return true
}

const defaultChannel = "taskboard:changes"

// Publisher fans change events out through a redis channel so every server
// replica can feed its websocket hub. A nil Publisher drops events, which
// keeps seeding and tests free of redis.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb, channel: defaultChannel}
}

func (p *Publisher) Publish(ctx context.Context, ev ChangeEvent) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal change event")
		return
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		log.Error().Err(err).Str("table", string(ev.Table)).Msg("Failed to publish change event")
	}
}

// Subscribe consumes the change channel and hands each decoded event to fn.
// Blocks until ctx is cancelled.
func Subscribe(ctx context.Context, rdb *redis.Client, fn func(ChangeEvent)) error {
	sub := rdb.Subscribe(ctx, defaultChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Error().Err(err).Msg("Failed to decode change event")
				continue
			}
			fn(ev)
		}
	}
}
