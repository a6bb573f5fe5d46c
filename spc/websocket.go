package spc

import (
	"context"
	"github.com/gorilla/websocket"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"sync"
	"time"
)

type MessageHandler func(ctx context.Context, payload []byte)

type ReconnectConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialInterval: 1 * time.Second,
		MaxInterval:     1 * time.Minute,
		Multiplier:      2.0,
	}
}

func (r ReconnectConfig) delay(attempts int) time.Duration {
	delay := r.InitialInterval

	for i := 0; i < attempts; i++ {
		delay = time.Duration(float64(delay) * r.Multiplier)
		if delay > r.MaxInterval {
			return r.MaxInterval
		}
	}

	return delay
}

// Subscriber delivers every inbound event stream message to a handler, in the order received.
type Subscriber interface {
	Start(ctx context.Context) error
	Stop()
}

type SubscriberFactory func(url string, handler MessageHandler) Subscriber

const (
	DefaultPingInterval = 30 * time.Second
	DefaultPongWait     = 60 * time.Second
	DefaultWriteWait    = 10 * time.Second
)

// WebsocketClient maintains a connection to the SPC Web Gateway event stream, reconnecting with backoff when the
// connection drops. The handler is called synchronously from the read loop.
type WebsocketClient struct {
	url       string
	handler   MessageHandler
	reconnect ReconnectConfig
	dialer    *websocket.Dialer

	pingInterval time.Duration
	pongWait     time.Duration
	writeWait    time.Duration

	logger  logwrap.Logger
	metrics *Metrics

	lock   sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Subscriber = (*WebsocketClient)(nil)

func NewWebsocketClient(url string, handler MessageHandler, reconnect ReconnectConfig) *WebsocketClient {
	if reconnect.InitialInterval <= 0 {
		reconnect = DefaultReconnectConfig()
	}

	return &WebsocketClient{
		url:       url,
		handler:   handler,
		reconnect: reconnect,
		dialer:    &websocket.Dialer{HandshakeTimeout: 30 * time.Second},

		pingInterval: DefaultPingInterval,
		pongWait:     DefaultPongWait,
		writeWait:    DefaultWriteWait,

		logger: logwrap.New(discard.Discard()),
	}
}

func (c *WebsocketClient) WithLogWrapLogger(l logwrap.Logger) {
	c.logger = l
}

func (c *WebsocketClient) Start(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.connectLoop(ctx)

	return nil
}

func (c *WebsocketClient) Stop() {
	c.lock.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.lock.Unlock()

	c.wg.Wait()
}

func (c *WebsocketClient) connectLoop(ctx context.Context) {
	defer c.wg.Done()

	attempts := 0

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			delay := c.reconnect.delay(attempts)
			attempts++
			c.metrics.reconnected()

			c.logger.LogWarn(ctx, "Failed to connect to SPC web gateway websocket, retrying.", logwrap.Datum("url", c.url), logwrap.Datum("delay", delay.String()), logwrap.Err(err))

			if !sleepContext(ctx, delay) {
				return
			}
			continue
		}

		attempts = 0
		c.logger.LogInfo(ctx, "Connected to SPC web gateway websocket.", logwrap.Datum("url", c.url))

		c.lock.Lock()
		if ctx.Err() != nil {
			c.lock.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.lock.Unlock()

		connDone := make(chan struct{})
		keepaliveDone := make(chan struct{})
		go func() {
			defer close(keepaliveDone)
			c.keepalive(ctx, conn, connDone)
		}()

		c.readLoop(ctx, conn)

		close(connDone)
		<-keepaliveDone

		c.lock.Lock()
		c.conn = nil
		c.lock.Unlock()
		conn.Close()

		if ctx.Err() != nil {
			return
		}

		c.metrics.reconnected()
		if !sleepContext(ctx, c.reconnect.delay(0)) {
			return
		}
	}
}

// keepalive pings the gateway until the connection ends, and closes the connection if the client is stopped.
func (c *WebsocketClient) keepalive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeWait)); err != nil {
				c.logger.LogWarn(ctx, "Failed to ping SPC web gateway websocket.", logwrap.Err(err))
				conn.Close()
				return
			}
		}
	}
}

// readLoop drops the connection when neither a message nor a pong arrives within the pong wait.
func (c *WebsocketClient) readLoop(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(c.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.LogWarn(ctx, "SPC web gateway websocket disconnected.", logwrap.Err(err))
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(c.pongWait))

		if mt != websocket.TextMessage {
			continue
		}

		c.handler(ctx, data)
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
