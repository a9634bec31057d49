package api

import (
	"net/http"

	"github.com/nerrad567/gray-logic-sensors/internal/sensor"
	"github.com/nerrad567/gray-logic-sensors/internal/sensortype"
	"github.com/nerrad567/gray-logic-sensors/internal/telemetry"
)

// Event channels clients can subscribe to.
const (
	channelSensorTypeChanged = "sensor_type.changed"
	channelSensorChanged     = "sensor.changed"
	channelSVIDReading       = "svid.reading"
)

var knownChannels = map[string]struct{}{
	channelSensorTypeChanged: {},
	channelSensorChanged:     {},
	channelSVIDReading:       {},
}

// sensorTypeChange is the payload of sensor_type.changed events.
type sensorTypeChange struct {
	Action     string                 `json:"action"`
	SensorType string                 `json:"sensor_type"`
	ConfigText string                 `json:"config_text,omitempty"`
	Item       *sensortype.SensorType `json:"item,omitempty"`
}

// sensorChange is the payload of sensor.changed events.
type sensorChange struct {
	Action string         `json:"action"`
	ID     string         `json:"id"`
	Item   *sensor.Sensor `json:"item,omitempty"`
}

// broadcastSensorTypeChange is registered as a sensortype.Observer.
func (s *Server) broadcastSensorTypeChange(ev sensortype.Event) {
	change := sensorTypeChange{Action: ev.Action, SensorType: ev.Name, Item: ev.SensorType}
	if ev.SensorType != nil {
		change.ConfigText = ev.SensorType.ConfigText()
	}
	s.hub.Broadcast(channelSensorTypeChanged, change)
}

func (s *Server) broadcastSensorChange(action, id string, sn *sensor.Sensor) {
	s.hub.Broadcast(channelSensorChanged, sensorChange{Action: action, ID: id, Item: sn})
}

// BroadcastReading relays an ingested SVID reading to subscribers. Register
// it with telemetry.Ingester.OnReading.
func (s *Server) BroadcastReading(r telemetry.Reading) {
	s.hub.Broadcast(channelSVIDReading, r)
}

// handleWebSocket authenticates and upgrades the connection. Browsers cannot
// set headers on the upgrade request, so the access token may also arrive
// as the "token" query parameter.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeUnauthorized(w, "token is required")
		return
	}
	claims, err := s.auth.Verify(token)
	if err != nil {
		writeUnauthorized(w, "invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := newWSClient(s.hub, conn, claims.Username)
	s.hub.Register(client)
	go client.writePump()
	go client.readPump()
}
