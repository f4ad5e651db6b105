package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"survivalpredict/monitoring"
)

func openWebSockets(t *testing.T, metrics *monitoring.MetricsCollector) float64 {
	t.Helper()
	families, err := metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "websocket_connections" && len(mf.GetMetric()) == 1 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("websocket_connections not registered")
	return 0
}

func dialPredictSocket(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/api/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) wsReply {
	t.Helper()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply wsReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	return reply
}

func TestWebSocketPredict(t *testing.T) {
	h, metrics := newTestHandler(t, "")
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialPredictSocket(t, srv.URL)

	reply := roundTrip(t, conn, `{"model":"dtree","passenger":`+samplePassengerJSON+`}`)
	if reply.Error != "" || reply.Prediction == nil {
		t.Fatalf("expected a prediction, got %+v", reply)
	}
	if reply.Prediction.Label != 0 || reply.Prediction.Formatted.NotSurvived != "82.82%" {
		t.Fatalf("unexpected prediction: %+v", reply.Prediction)
	}

	// The connection survives a bad frame.
	reply = roundTrip(t, conn, `not json`)
	if reply.Prediction != nil || !strings.Contains(reply.Error, "invalid request body") {
		t.Fatalf("expected an error reply, got %+v", reply)
	}

	reply = roundTrip(t, conn, `{"model":"svm","passenger":`+samplePassengerJSON+`}`)
	if !strings.Contains(reply.Error, "unknown model") {
		t.Fatalf("expected unknown model error, got %+v", reply)
	}

	reply = roundTrip(t, conn, `{"model":"gnb","lang":"id","passenger":`+samplePassengerJSON+`}`)
	if reply.Prediction == nil || reply.Prediction.Model != "gnb" {
		t.Fatalf("expected a gnb prediction, got %+v", reply)
	}
	if !strings.Contains(reply.Prediction.Formatted.Survived, ",") {
		t.Fatalf("expected indonesian decimal comma, got %q", reply.Prediction.Formatted.Survived)
	}

	if got := openWebSockets(t, metrics); got != 1 {
		t.Fatalf("expected 1 open websocket, got %v", got)
	}
}

func TestWebSocketClosesGauge(t *testing.T) {
	h, metrics := newTestHandler(t, "")
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialPredictSocket(t, srv.URL)
	roundTrip(t, conn, `{"model":"knn","passenger":`+samplePassengerJSON+`}`)
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for openWebSockets(t, metrics) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket gauge was not decremented")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
