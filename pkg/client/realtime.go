package client

import (
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"taskboard-api/pkg/event"
)

// EventSource delivers change events for a scope. Subscribe returns the
// release func; every acquisition is paired with an explicit release.
type EventSource interface {
	Subscribe(scope event.Scope, fn func(event.ChangeEvent)) (func(), error)
}

// Realtime subscribes to the board's websocket change feed. Each
// subscription holds its own connection scoped server-side, so releasing
// one never disturbs another.
type Realtime struct {
	baseURL string
}

func NewRealtime(baseURL string) *Realtime {
	return &Realtime{baseURL: baseURL}
}

func (r *Realtime) Subscribe(scope event.Scope, fn func(event.ChangeEvent)) (func(), error) {
	endpoint := strings.Replace(r.baseURL, "http", "ws", 1) + "/api/v1/ws"

	query := url.Values{}
	if scope.Table != "" {
		query.Set("table", string(scope.Table))
	}
	if scope.TaskID != "" {
		query.Set("task_id", scope.TaskID)
	}
	if scope.Status != "" {
		query.Set("status", string(scope.Status))
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return nil, err
	}

	var closeOnce sync.Once
	release := func() {
		closeOnce.Do(func() {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		})
	}

	go func() {
		defer release()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug().Err(err).Msg("Realtime connection closed")
				}
				return
			}
			var ev event.ChangeEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				log.Error().Err(err).Msg("Failed to decode change event")
				continue
			}
			fn(ev)
		}
	}()

	return release, nil
}
