package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/config"
)

// Logger receives handler failures and connection loss. *slog.Logger and
// *logging.Logger both satisfy it.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler processes one received message. Handlers run on paho's
// goroutines and should return quickly; a returned error is logged.
type MessageHandler func(topic string, payload []byte) error

type subscription struct {
	qos     byte
	handler MessageHandler
}

// Client is the service's broker session. It publishes retained sensor
// type configurations, receives SVID readings and maintains the retained
// online/offline status. Subscriptions survive reconnects.
//
// All methods are safe for concurrent use.
type Client struct {
	paho      pahomqtt.Client
	cfg       config.MQTTConfig
	topics    Topics
	connected atomic.Bool

	mu            sync.RWMutex
	subscriptions map[string]subscription
	logger        Logger
	onConnect     func()
	onDisconnect  func(err error)
}

// Connect dials the broker and waits for the first session. The broker is
// told to publish an offline status if the service vanishes.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{
		cfg:           cfg,
		topics:        NewTopics(cfg.TopicPrefix),
		subscriptions: make(map[string]subscription),
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, c.topics, cfg.Broker.ClientID)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.sessionUp() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.sessionDown(err) })

	c.paho = pahomqtt.NewClient(opts)
	if err := wait(c.paho.Connect(), defaultConnectTimeout, ErrConnectionFailed); err != nil {
		return nil, err
	}
	// sessionUp runs on its own goroutine; callers may publish right away.
	c.connected.Store(true)
	return c, nil
}

// wait blocks on a paho token and wraps any failure in kind.
func wait(token pahomqtt.Token, timeout time.Duration, kind error) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: timeout after %v", kind, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return nil
}

// Topics returns the topic builders for the configured prefix.
func (c *Client) Topics() Topics {
	return c.topics
}

func (c *Client) sessionUp() {
	c.connected.Store(true)

	c.mu.RLock()
	for topic, sub := range c.subscriptions {
		c.paho.Subscribe(topic, sub.qos, c.wrapHandler(sub.handler))
	}
	hook := c.onConnect
	c.mu.RUnlock()

	c.paho.Publish(c.topics.SystemStatus(), c.qos(), true,
		buildStatusPayload("online", c.cfg.Broker.ClientID, ""))

	if hook != nil {
		hook()
	}
}

func (c *Client) sessionDown(err error) {
	c.connected.Store(false)

	c.mu.RLock()
	logger, hook := c.logger, c.onDisconnect
	c.mu.RUnlock()

	if logger != nil {
		logger.Warn("MQTT connection lost", "error", err)
	}
	if hook != nil {
		hook(err)
	}
}

func (c *Client) qos() byte {
	return byte(c.cfg.QoS) //nolint:gosec // validated 0-2 by config.Validate
}

// Close announces a graceful shutdown on the status topic and disconnects.
func (c *Client) Close() error {
	if c == nil || c.paho == nil {
		return nil
	}
	if c.IsConnected() {
		c.paho.Publish(c.topics.SystemStatus(), c.qos(), true,
			buildStatusPayload("offline", c.cfg.Broker.ClientID, "graceful_shutdown")).
			WaitTimeout(defaultPublishTimeout)
	}
	c.paho.Disconnect(defaultDisconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// HealthCheck returns ErrNotConnected while the broker is unreachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports the last known session state.
func (c *Client) IsConnected() bool {
	return c.paho != nil && c.connected.Load() && c.paho.IsConnected()
}

// SetOnConnect registers fn to run after every (re)connect, once
// subscriptions are restored.
func (c *Client) SetOnConnect(fn func()) {
	c.mu.Lock()
	c.onConnect = fn
	c.mu.Unlock()
}

// SetOnDisconnect registers fn to run when the session drops.
func (c *Client) SetOnDisconnect(fn func(err error)) {
	c.mu.Lock()
	c.onDisconnect = fn
	c.mu.Unlock()
}

func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

// wrapHandler adapts a MessageHandler to paho, logging its errors and
// containing its panics.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.mu.RLock()
		logger := c.logger
		c.mu.RUnlock()

		defer func() {
			if r := recover(); r != nil && logger != nil {
				logger.Error("MQTT handler panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()
		if err := handler(msg.Topic(), msg.Payload()); err != nil && logger != nil {
			logger.Warn("MQTT handler returned error", "topic", msg.Topic(), "error", err)
		}
	}
}
