package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-sensors/internal/telemetry"
)

// dialWS connects to the test server's WebSocket endpoint.
func dialWS(t *testing.T, ts *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	if token != "" {
		url += "?token=" + token
	}
	return websocket.DefaultDialer.Dial(url, nil)
}

func readWSMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	//nolint:errcheck // Test deadline
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decoding %s: %v", data, err)
	}
	return msg
}

func subscribe(t *testing.T, conn *websocket.Conn, channels ...string) WSMessage {
	t.Helper()
	err := conn.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: channels},
	})
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	return readWSMessage(t, conn)
}

func TestWebSocketAuth(t *testing.T) {
	e := testServer(t)
	ts := httptest.NewServer(e.router)
	defer ts.Close()

	for _, token := range []string{"", "bogus"} {
		_, resp, err := dialWS(t, ts, token)
		if err == nil {
			t.Fatalf("dial with token %q succeeded", token)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("token %q: response = %v, want 401", token, resp)
		}
	}
}

func TestWebSocketBroadcasts(t *testing.T) {
	e := testServer(t)
	ts := httptest.NewServer(e.router)
	defer ts.Close()

	conn, _, err := dialWS(t, ts, e.token)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	resp := subscribe(t, conn, channelSensorTypeChanged, channelSensorChanged, channelSVIDReading)
	if resp.Type != WSTypeResponse || resp.ID != "sub-1" {
		t.Fatalf("subscribe response = %+v", resp)
	}

	// Catalogue change.
	e.createType(t, "Temperature", tempConfig)
	msg := readWSMessage(t, conn)
	if msg.Type != WSTypeEvent || msg.EventType != channelSensorTypeChanged {
		t.Fatalf("event = %+v", msg)
	}
	payload := msg.Payload.(map[string]any)
	if payload["action"] != "create" || payload["sensor_type"] != "Temperature" || payload["config_text"] != tempConfig {
		t.Errorf("payload = %v", payload)
	}

	// Inventory change.
	wantStatus(t, e.do(t, http.MethodPost, "/api/v1/sensors", tcpSensorBody("T-1")), http.StatusCreated)
	msg = readWSMessage(t, conn)
	if msg.EventType != channelSensorChanged || msg.Payload.(map[string]any)["action"] != "create" {
		t.Errorf("event = %+v", msg)
	}

	// Reading relayed by the ingester listener.
	e.srv.BroadcastReading(telemetry.Reading{SVID: "1001", Value: 7, Timestamp: time.Now()})
	msg = readWSMessage(t, conn)
	if msg.EventType != channelSVIDReading || msg.Payload.(map[string]any)["svid"] != "1001" {
		t.Errorf("event = %+v", msg)
	}
}

func TestWebSocketRejectsUnknownChannel(t *testing.T) {
	e := testServer(t)
	ts := httptest.NewServer(e.router)
	defer ts.Close()

	conn, _, err := dialWS(t, ts, e.token)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	resp := subscribe(t, conn, "device.state_changed")
	if resp.Type != WSTypeError {
		t.Errorf("response = %+v, want error", resp)
	}

	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if pong := readWSMessage(t, conn); pong.Type != WSTypePong || pong.ID != "p" {
		t.Errorf("pong = %+v", pong)
	}
}

func TestHubBroadcastOnlyToSubscribers(t *testing.T) {
	e := testServer(t)
	hub := e.srv.Hub()

	subscribed := &WSClient{hub: hub, send: make(chan []byte, 1), subscriptions: map[string]struct{}{channelSensorChanged: {}}}
	other := &WSClient{hub: hub, send: make(chan []byte, 1), subscriptions: map[string]struct{}{}}
	hub.Register(subscribed)
	hub.Register(other)

	hub.Broadcast(channelSensorChanged, map[string]string{"id": "x"})

	if len(subscribed.send) != 1 {
		t.Error("subscriber did not receive broadcast")
	}
	if len(other.send) != 0 {
		t.Error("non-subscriber received broadcast")
	}

	hub.Unregister(subscribed)
	hub.Unregister(subscribed) // second call must not panic
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}
}
