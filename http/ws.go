package http

import (
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 16 << 10
)

// wsReply is either a prediction or an error; exactly one is set.
type wsReply struct {
	Prediction *predictResponse `json:"prediction,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// handleWebSocket answers every text frame holding a predict request with
// one reply frame. A bad frame yields an error reply and keeps the
// connection open.
func (h *handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.deps.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.deps.Metrics.WebSocketOpened()
	defer h.deps.Metrics.WebSocketClosed()
	defer conn.Close()

	requestID := GetRequestID(r.Context())
	logger := h.deps.Logger.With(zap.String("request_id", requestID))
	logger.Debug("websocket connected")

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		reply := h.wsPredict(data, logger)
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (h *handlers) wsPredict(data []byte, logger *zap.Logger) wsReply {
	var req predictRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wsReply{Error: "invalid request body: " + err.Error()}
	}
	resp, status, err := h.servePredictRequest(req)
	if err != nil {
		if status == http.StatusInternalServerError {
			logger.Error("websocket prediction failed", zap.Error(err))
			return wsReply{Error: http.StatusText(status)}
		}
		return wsReply{Error: err.Error()}
	}
	return wsReply{Prediction: &resp}
}

// pingLoop runs beside the read loop. WriteControl may be called
// concurrently with the other connection methods.
func (h *handlers) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				return
			}
		}
	}
}
