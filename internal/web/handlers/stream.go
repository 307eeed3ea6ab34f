package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Pinkesh2905/FaceTrace/internal/constants"
	"github.com/Pinkesh2905/FaceTrace/internal/web/middleware"
)

const (
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamWriteWait  = 10 * time.Second
)

// streamReply is sent for every observation message.
type streamReply struct {
	Seq   int    `json:"seq"`
	Error string `json:"error,omitempty"`
	*RecognizeResponse
}

// Stream handles GET /api/v1/observations/stream. Each text message is a JSON
// observation (camera_id, timestamp, encodings); each reply carries the match
// results and attendance decisions for it, in order. A malformed message gets
// an error reply and the stream stays open.
func (h *RecognizeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     middleware.OriginChecker(h.origins),
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "tenant", tenant, "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(constants.MaxUploadSize)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	ctx := r.Context()
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(streamPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// WriteControl may run concurrently with WriteJSON.
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	h.logger.Info("observation stream opened", "tenant", tenant, "remote", sanitizeForLog(r.RemoteAddr))
	for seq := 1; ; seq++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				h.logger.Debug("observation stream read ended", "tenant", tenant, "error", err)
			}
			break
		}

		reply := streamReply{Seq: seq}
		var req recognizeRequest
		if err := json.Unmarshal(data, &req); err != nil {
			reply.Error = errInvalidRequestBody
		} else if resp, err := h.process(ctx, tenant, req, facesFromEncodings(req.Encodings)); err != nil {
			h.logger.Error("stream recognition failed", "tenant", tenant, "error", err)
			reply.Error = "recognition failed"
		} else {
			reply.RecognizeResponse = resp
		}

		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			h.logger.Debug("observation stream write failed", "tenant", tenant, "error", err)
			break
		}
	}
	h.logger.Info("observation stream closed", "tenant", tenant)
}
