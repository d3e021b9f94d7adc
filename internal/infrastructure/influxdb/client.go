package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/config"
)

// Timeouts for talking to the InfluxDB server.
const (
	// connectPingTimeout bounds the ping Connect uses to verify the server.
	connectPingTimeout = 10 * time.Second

	// healthPingTimeout bounds the ping behind HealthCheck. It is shorter
	// because the API health endpoint waits on it.
	healthPingTimeout = 5 * time.Second
)

// Batching applied when the configuration leaves a value unset.
const (
	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
)

// Client records monitor telemetry in one InfluxDB bucket.
//
// Message points are batched and written in the background. Alarm points
// are flushed as soon as they are written so a dashboard shows a break-in
// without waiting for the next batch. Write failures never reach the
// monitor; they are passed to the callback registered with SetOnError.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - A zero Client, or one that has been closed, drops every write.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	bucket   string

	// open is false before Connect succeeds and after Close.
	open bool
	mu   sync.RWMutex

	onError func(err error)
}

// Connect opens the telemetry client for the configured bucket.
//
// It performs the following setup:
//  1. Applies batching defaults for unset batch_size and flush_interval
//  2. Pings the server so a wrong URL fails at startup, not on first write
//  3. Starts the non-blocking write API and its error forwarder
//
// Parameters:
//   - ctx: Bounds the startup ping together with an internal timeout
//   - cfg: The influxdb section of the monitor configuration
//
// Returns:
//   - *Client: Ready for WriteMessage and WriteAlarm
//   - error: ErrDisabled when influxdb.enabled is false, or an error
//     wrapping ErrConnectionFailed when the server cannot be reached
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize, flushMillis := batchSettings(cfg)
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(batchSize).
			SetFlushInterval(flushMillis),
	)

	if err := ping(ctx, client, connectPingTimeout); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, cfg.URL, err)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		bucket:   cfg.Bucket,
		open:     true,
	}
	go c.forwardWriteErrors(c.writeAPI.Errors())

	return c, nil
}

// batchSettings converts the configured batch size and flush interval
// (seconds) into the units influxdb2.Options expects. Non-positive values
// fall back to the defaults.
func batchSettings(cfg config.InfluxDBConfig) (size, flushMillis uint) {
	batch := defaultBatchSize
	if cfg.BatchSize > 0 {
		batch = cfg.BatchSize
	}
	interval := defaultFlushInterval
	if cfg.FlushInterval > 0 {
		interval = time.Duration(cfg.FlushInterval) * time.Second
	}
	// #nosec G115 -- both values are positive
	return uint(batch), uint(interval.Milliseconds())
}

// ping asks the server whether it is ready, giving up after timeout.
func ping(ctx context.Context, client influxdb2.Client, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !healthy {
		return fmt.Errorf("ping: server not ready")
	}
	return nil
}

// forwardWriteErrors passes background write failures to the callback set
// with SetOnError. It ends when the write API is closed.
func (c *Client) forwardWriteErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		c.mu.RLock()
		callback := c.onError
		c.mu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// Close flushes buffered points and releases the client.
//
// Returns:
//   - error: always nil; closing an unconnected Client is a no-op
func (c *Client) Close() error {
	c.mu.Lock()
	wasOpen := c.open
	c.open = false
	c.mu.Unlock()

	if !wasOpen {
		return nil
	}

	c.writeAPI.Flush()
	c.client.Close()
	return nil
}

// HealthCheck pings the server. The API health endpoint reports the result
// under "influxdb".
//
// Returns:
//   - error: ErrNotConnected before Connect or after Close, otherwise the
//     ping failure
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if err := ping(ctx, c.client, healthPingTimeout); err != nil {
		return fmt.Errorf("influxdb bucket %s: %w", c.bucket, err)
	}
	return nil
}

// IsConnected reports whether the client is open for writes.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// SetOnError registers the callback for background write failures.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = callback
}

// Flush writes buffered points now instead of at the next batch boundary.
// It does nothing on a closed client.
func (c *Client) Flush() {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.Flush()
}
