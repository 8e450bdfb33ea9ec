package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"taskboard-api/pkg/event"
	"taskboard-api/pkg/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS layer in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketController upgrades a realtime subscription. The scope comes
// from query params: table, task_id, status — all optional, all narrowing.
func WebSocketController(c *gin.Context) {
	scope := event.Scope{
		TaskID: c.Query("task_id"),
	}

	switch table := c.Query("table"); table {
	case "":
	case string(event.TableTasks):
		scope.Table = event.TableTasks
	case string(event.TableComments):
		scope.Table = event.TableComments
	default:
		c.JSON(http.StatusBadRequest, defaultErrorResponse("unknown table"))
		return
	}

	if raw := c.Query("status"); raw != "" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, defaultErrorResponse(err.Error()))
			return
		}
		scope.Status = status
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket")
		return
	}

	client := event.NewClient(deps.Hub, conn, scope)
	deps.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
