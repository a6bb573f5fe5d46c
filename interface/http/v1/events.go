package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/gorilla/websocket"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/panelbridge/interface/converters/exporter"
	"github.com/shimmeringbee/panelbridge/state"
	"net/http"
	"time"
)

type eventsController struct {
	eventbus    state.EventSubscriber
	eventMapper exporter.EventExporter
	logger      logwrap.Logger
}

const ConnectionEventBufferSize = 16

var HeartbeatInterval = 30 * time.Second

func (z *eventsController) serveServerSideEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Type")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventsCh := make(chan any, ConnectionEventBufferSize)

	z.eventbus.Subscribe(eventsCh)
	defer z.eventbus.Unsubscribe(eventsCh)

	z.sendLoop(func(b []byte) error {
		data := append([]byte("data: "), b...)
		data = append(data, '\n', '\n')

		if n, err := w.Write(data); err != nil {
			return err
		} else if len(data) != n {
			return fmt.Errorf("failed to send full event: %d != %d", len(data), n)
		}

		flusher.Flush()
		return nil
	}, eventsCh, r.Context().Done())
}

var wsUpgrader = websocket.Upgrader{}

func (z *eventsController) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	c, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		z.logger.LogWarn(r.Context(), "Failed to upgrade connection to websocket.", logwrap.Err(err))
		return
	}
	defer c.Close()

	if err := z.serveWebsocketConnection(c); err != nil {
		z.logger.LogDebug(r.Context(), "Websocket connection ended with error.", logwrap.Err(err))
	}
}

func (z *eventsController) serveWebsocketConnection(c *websocket.Conn) error {
	eventsCh := make(chan any, ConnectionEventBufferSize)
	shutdownCh := make(chan struct{})

	z.eventbus.Subscribe(eventsCh)

	defer func() {
		z.eventbus.Unsubscribe(eventsCh)
		close(shutdownCh)
	}()

	go z.sendLoop(func(b []byte) error {
		return c.WriteMessage(websocket.TextMessage, b)
	}, eventsCh, shutdownCh)

	return z.serviceIncoming(c)
}

func (z *eventsController) sendLoop(publish func([]byte) error, ch chan any, shutCh <-chan struct{}) {
	send := func(ctx context.Context, e any) bool {
		d, err := json.Marshal(e)
		if err != nil {
			z.logger.LogError(ctx, "Failed to marshal event message.", logwrap.Err(err))
			return true
		}

		if err := publish(d); err != nil {
			z.logger.LogDebug(ctx, "Failed to send event message.", logwrap.Err(err))
			return false
		}

		return true
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	events, err := z.eventMapper.InitialEvents(initCtx)
	cancel()
	if err != nil {
		z.logger.LogError(context.Background(), "Failed to generate initial events.", logwrap.Err(err))
		return
	}

	for _, e := range events {
		if !send(context.Background(), e) {
			return
		}
	}

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event := <-ch:
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			es, err := z.eventMapper.MapEvent(ctx, event)
			cancel()

			if err != nil {
				z.logger.LogError(ctx, "Failed to map event to message.", logwrap.Err(err), logwrap.Datum("event", fmt.Sprintf("%T", event)))
				continue
			}

			for _, e := range es {
				if !send(context.Background(), e) {
					return
				}
			}
		case <-heartbeat.C:
			if !send(context.Background(), exporter.HeartBeatMessage{Message: exporter.Message{Type: exporter.HeartBeatMessageName}}) {
				return
			}
		case <-shutCh:
			return
		}
	}
}

func (z *eventsController) serviceIncoming(c *websocket.Conn) error {
	for {
		_, _, err := c.ReadMessage()
		if err != nil {
			if _, ok := err.(*websocket.CloseError); ok {
				z.logger.LogDebug(context.Background(), "Websocket closed.", logwrap.Err(err))
				return nil
			}
			return err
		}
	}
}
