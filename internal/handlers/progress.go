package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/presentation-analysis/internal/logging"
	"github.com/codebuildervaibhav/presentation-analysis/internal/queue"
)

// ProgressHandler streams job progress over a websocket. Reads are
// non-destructive: the one-shot terminal payload stays reserved for
// the HTTP status endpoint, the stream only tells the client when to
// go fetch it.
type ProgressHandler struct {
	store *queue.StatusStore
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(store *queue.StatusStore) *ProgressHandler {
	return &ProgressHandler{store: store}
}

type progressMessage struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Total    int    `json:"total,omitempty"`
	Done     bool   `json:"done"`
}

// Handle pushes status updates for one job until it reaches a
// terminal state or the client disconnects.
func (h *ProgressHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	jobID := c.Params("id")
	logger := logging.WithComponent("progress")
	logger.Debug().Str("job", jobID).Msg("progress stream opened")

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var last progressMessage
	for range ticker.C {
		status, ok := h.store.Get(jobID)
		if !ok {
			// Unknown id, or the terminal payload was already popped
			// by a status poll.
			c.WriteMessage(websocket.TextMessage, mustJSON(progressMessage{
				Status: "NotFound",
				Done:   true,
			}))
			return
		}

		msg := progressMessage{
			Status:   status.Status,
			Message:  status.Message,
			Progress: status.Progress,
			Total:    status.Total,
			Done:     status.Terminal(),
		}
		if msg.Done {
			msg.Message = "analysis finished; fetch the result from GET /status/" + jobID
		}

		if msg != last {
			if err := c.WriteMessage(websocket.TextMessage, mustJSON(msg)); err != nil {
				return
			}
			last = msg
		}

		if msg.Done {
			return
		}
	}
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"status":"Error","done":true}`)
	}
	return data
}
