package influxdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	fallbackBatchSize     = 100
	fallbackFlushInterval = 10 * time.Second
)

// Client records SVID history and configuration changes in an InfluxDB v2
// bucket. Points are buffered by the batching write API, so writes never
// block; failures are reported through SetOnError.
//
// A nil or closed *Client accepts every call and does nothing.
type Client struct {
	influx influxdb2.Client
	writer api.WriteAPI
	open   atomic.Bool

	mu      sync.RWMutex
	onError func(err error)
}

// options turns the influxdb section of the configuration into client
// options, substituting defaults for unset batch settings.
func options(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := uint(fallbackBatchSize)
	if cfg.BatchSize > 0 {
		batch = uint(cfg.BatchSize)
	}
	flush := fallbackFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}
	return influxdb2.DefaultOptions().
		SetBatchSize(batch).
		SetFlushInterval(uint(flush.Milliseconds())) //nolint:gosec // positive by construction
}

// Connect pings the server before returning a client bound to cfg.Org and
// cfg.Bucket.
//
// Parameters:
//   - cfg: the influxdb section; URL, Token, Org and Bucket are required
//     when Enabled is true
//
// Returns:
//   - a client whose writes are batched (cfg.BatchSize points or every
//     cfg.FlushInterval seconds, whichever comes first)
//   - ErrDisabled when cfg.Enabled is false; callers treat history as off
//   - an error wrapping ErrConnectionFailed when the ping fails
//
// Example:
//
//	history, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    history = nil // every write becomes a no-op
//	}
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	influx := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, options(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := ping(ctx, influx); err != nil {
		influx.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{influx: influx, writer: influx.WriteAPI(cfg.Org, cfg.Bucket)}
	c.open.Store(true)
	go c.forwardErrors(c.writer.Errors())
	return c, nil
}

func ping(ctx context.Context, influx influxdb2.Client) error {
	ok, err := influx.Ping(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("ping: %w", err)
	case !ok:
		return fmt.Errorf("server not healthy")
	}
	return nil
}

func (c *Client) forwardErrors(errs <-chan error) {
	for err := range errs {
		c.mu.RLock()
		fn := c.onError
		c.mu.RUnlock()
		if fn != nil {
			fn(fmt.Errorf("%w: %w", ErrWriteFailed, err))
		}
	}
}

// Close writes out buffered points and releases the HTTP client.
func (c *Client) Close() error {
	if c == nil || !c.open.CompareAndSwap(true, false) {
		return nil
	}
	c.writer.Flush()
	c.influx.Close()
	return nil
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(ctx, c.influx); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	return nil
}

// IsConnected reports false for a nil or closed client.
func (c *Client) IsConnected() bool {
	return c != nil && c.open.Load()
}

// SetOnError registers fn for asynchronous write failures. Errors passed
// to fn wrap ErrWriteFailed.
func (c *Client) SetOnError(fn func(err error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// Flush blocks until buffered points are sent.
func (c *Client) Flush() {
	if c.IsConnected() {
		c.writer.Flush()
	}
}
