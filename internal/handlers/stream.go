// AI Forge Generation Stream
// WebSocket endpoint that reports pipeline state changes while a run executes

package handlers

import (
	"context"
	"net/http"
	"time"

	"ai-forge/internal/generation"
	"ai-forge/internal/logging"
	"ai-forge/internal/metrics"
	"ai-forge/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	streamWriteWait   = 10 * time.Second
	streamPromptWait  = 30 * time.Second
	streamEventBuffer = 16
)

// WebSocket upgrader for generation streams
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // streams carry no credentials
	},
}

// StreamMessage is one server-to-client message on the generation stream
type StreamMessage struct {
	Type      string                   `json:"type"` // state, result, error
	RunID     string                   `json:"runId,omitempty"`
	State     generation.RunState      `json:"state,omitempty"`
	Event     generation.RunEvent      `json:"event,omitempty"`
	Stage     generation.Stage         `json:"stage,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Code      string                   `json:"code,omitempty"`
	Data      *models.GeneratedProject `json:"data,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
}

type runOutcome struct {
	project *models.GeneratedProject
	err     error
}

// StreamGeneration runs the pipeline for the first message's prompt and
// streams every state transition, then the result or the error.
// GET /api/v1/projects/generate/stream
func (h *Handler) StreamGeneration(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	m := metrics.Get()
	m.RecordWebSocketConnection("generation", 1)
	defer m.RecordWebSocketConnection("generation", -1)

	_ = conn.SetReadDeadline(time.Now().Add(streamPromptWait))
	var req GenerateRequest
	if err := conn.ReadJSON(&req); err != nil || blank(req.Prompt) {
		writeStream(conn, StreamMessage{
			Type:  "error",
			Error: "A non-empty prompt is required",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	m.RecordWebSocketMessage("prompt", "inbound")
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// the client has nothing more to say; a read error means it went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	transitions := make(chan generation.StateTransition, streamEventBuffer)
	outcome := make(chan runOutcome, 1)
	go func() {
		project, err := h.Projects.GenerateProject(ctx, req.Prompt, generation.WithTransitions(transitions))
		outcome <- runOutcome{project: project, err: err}
	}()

	for {
		select {
		case tr := <-transitions:
			if !writeStream(conn, stateMessage(tr)) {
				cancel()
			}
		case res := <-outcome:
			// transitions are sent before GenerateProject returns
			for drained := false; !drained; {
				select {
				case tr := <-transitions:
					writeStream(conn, stateMessage(tr))
				default:
					drained = true
				}
			}

			if res.err != nil {
				_, resp := generationFailure(res.err)
				msg := StreamMessage{Type: "error", Error: resp.Error, Code: resp.Code}
				if serr, ok := generation.AsStageError(res.err); ok {
					msg.RunID = serr.RunID
					msg.Stage = serr.Stage
				}
				writeStream(conn, msg)
				return
			}

			writeStream(conn, StreamMessage{Type: "result", Data: res.project})
			return
		}
	}
}

func stateMessage(tr generation.StateTransition) StreamMessage {
	return StreamMessage{
		Type:      "state",
		RunID:     tr.RunID,
		State:     tr.ToState,
		Event:     tr.Event,
		Error:     tr.ErrorMessage,
		Timestamp: tr.Timestamp,
	}
}

// writeStream sends msg and reports whether the write succeeded
func writeStream(conn *websocket.Conn, msg StreamMessage) bool {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		logging.L().Debug("generation stream write failed", zap.String("type", msg.Type), zap.Error(err))
		return false
	}
	metrics.Get().RecordWebSocketMessage(msg.Type, "outbound")
	return true
}
