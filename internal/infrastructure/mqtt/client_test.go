package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "sensoradmin-test",
		},
		QoS:         1,
		TopicPrefix: "sensoradmin-test",
		Reconnect:   config.MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 5},
	}
}

// connectOrSkip connects to a local broker, skipping when none is running.
func connectOrSkip(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("broker tests skipped in short mode")
	}
	client, err := Connect(testConfig())
	if err != nil {
		t.Skipf("no MQTT broker at 127.0.0.1:1883: %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("sensoradmin")
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"config", topics.SensorTypeConfig("Temperature"), "sensoradmin/config/Temperature"},
		{"svid", topics.SVIDReading("SVID001_S1"), "sensoradmin/svid/SVID001_S1"},
		{"all svids", topics.AllSVIDReadings(), "sensoradmin/svid/+"},
		{"all configs", topics.AllSensorTypeConfigs(), "sensoradmin/config/+"},
		{"status", topics.SystemStatus(), "sensoradmin/system/status"},
		{"custom prefix", NewTopics("/plant-7/").SystemStatus(), "plant-7/system/status"},
		{"empty prefix", NewTopics("").SVIDReading("X"), "sensoradmin/svid/X"},
		{"zero value", Topics{}.SensorTypeConfig("Flow"), "sensoradmin/config/Flow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestLastSegment(t *testing.T) {
	if got := LastSegment("sensoradmin/svid/SVID001_S1"); got != "SVID001_S1" {
		t.Errorf("LastSegment() = %q", got)
	}
	if got := LastSegment("plain"); got != "plain" {
		t.Errorf("LastSegment(plain) = %q", got)
	}
}

func TestValidateSegment(t *testing.T) {
	for _, bad := range []string{"", "a/b", "a+", "#"} {
		if err := ValidateSegment(bad); !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("ValidateSegment(%q) = %v, want ErrInvalidTopic", bad, err)
		}
	}
	if err := ValidateSegment("Temperature"); err != nil {
		t.Errorf("ValidateSegment(Temperature) = %v", err)
	}
}

func TestStatusPayload(t *testing.T) {
	var p statusPayload
	if err := json.Unmarshal(buildStatusPayload("offline", `id"with"quotes`, "graceful_shutdown"), &p); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if p.Status != "offline" || p.ClientID != `id"with"quotes` || p.Reason != "graceful_shutdown" {
		t.Errorf("payload = %+v", p)
	}
	if _, err := time.Parse(time.RFC3339, p.Timestamp); err != nil {
		t.Errorf("timestamp %q: %v", p.Timestamp, err)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth.Username = "svc"

	opts := buildClientOptions(cfg)
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("servers = %v", opts.Servers)
	}
	if opts.Username != "svc" || opts.ClientID != "sensoradmin-test" {
		t.Errorf("username=%q client_id=%q", opts.Username, opts.ClientID)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config not applied")
	}

	configureLWT(opts, NewTopics(cfg.TopicPrefix), cfg.Broker.ClientID)
	if !opts.WillEnabled || opts.WillTopic != "sensoradmin-test/system/status" || !opts.WillRetained {
		t.Errorf("will = %v %q %v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
}

func TestOperationsWhenDisconnected(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"publish empty topic", c.Publish("", nil, 1, false), ErrInvalidTopic},
		{"publish bad qos", c.Publish("t", nil, 3, false), ErrInvalidQoS},
		{"publish oversized", c.Publish("t", make([]byte, maxPayloadSize+1), 0, false), ErrPublishFailed},
		{"publish disconnected", c.Publish("t", []byte("x"), 1, false), ErrNotConnected},
		{"subscribe nil handler", c.Subscribe("t", 1, nil), ErrSubscribeFailed},
		{"subscribe disconnected", c.Subscribe("t", 1, noop), ErrNotConnected},
		{"unsubscribe empty", c.Unsubscribe(""), ErrInvalidTopic},
		{"health", c.HealthCheck(context.Background()), ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}
	if c.SubscriptionCount() != 0 {
		t.Error("failed subscribe was tracked")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client = %v", err)
	}
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	errs  []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errs = append(l.errs, msg)
	l.mu.Unlock()
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestWrapHandlerRecovers(t *testing.T) {
	logger := &recordingLogger{}
	c := &Client{}
	c.SetLogger(logger)

	c.wrapHandler(func(string, []byte) error { panic("boom") })(nil, fakeMessage{topic: "t"})
	c.wrapHandler(func(string, []byte) error { return errors.New("bad payload") })(nil, fakeMessage{topic: "t"})

	if len(logger.errs) != 1 || len(logger.warns) != 1 {
		t.Errorf("errs=%v warns=%v", logger.errs, logger.warns)
	}
}

func TestRetainedConfigRoundtrip(t *testing.T) {
	client := connectOrSkip(t)
	topic := client.Topics().SensorTypeConfig("RoundTrip")

	if err := client.PublishRetained(topic, []byte(`{"unit":"C"}`)); err != nil {
		t.Fatalf("PublishRetained() error = %v", err)
	}

	received := make(chan []byte, 1)
	err := client.Subscribe(topic, 1, func(_ string, payload []byte) error {
		select {
		case received <- payload:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(topic) {
		t.Error("subscription not tracked")
	}

	select {
	case got := <-received:
		if string(got) != `{"unit":"C"}` {
			t.Errorf("payload = %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retained message not delivered")
	}

	if err := client.ClearRetained(topic); err != nil {
		t.Errorf("ClearRetained() error = %v", err)
	}
	if err := client.Unsubscribe(topic); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
}
