// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/show/internal/game"
	"github.com/jason-s-yu/show/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the websocket subprotocol clients must request.
const Subprotocol = "show"

var (
	errBadJSON = errors.New("invalid JSON format")
	errEvicted = errors.New("evicted: send queue full")
)

// GameWSHandler upgrades the HTTP connection and runs the client until it
// disconnects. A dropped connection leaves the room.
func GameWSHandler(logger *logrus.Logger, gs *GameServer, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the show subprotocol")
			return
		}

		client := gs.Connect(sendBufferSize)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		go writePump(ctx, c, client, logger)
		go func() {
			select {
			case <-client.Done():
				cancel()
			case <-ctx.Done():
			}
		}()

		readErr := readPump(ctx, c, gs, client, logger)

		cancel()
		gs.Disconnect(client)
		if client.Evicted() {
			readErr = errEvicted
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
		if client.Evicted() {
			c.Close(websocket.StatusPolicyViolation, "client too slow")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump decodes inbound messages and dispatches them until the connection
// fails. Normal closures return nil.
func readPump(ctx context.Context, c *websocket.Conn, gs *GameServer, client *Client, logger *logrus.Logger) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if typ != websocket.MessageText {
			logger.Warnf("ignoring non-text message type %d from %v", typ, client.ID)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("invalid json from %v: %v", client.ID, err)
			client.enqueue(game.EncodeEvent(game.ErrorEvent(errBadJSON)))
			continue
		}
		_ = gs.Dispatch(client, msg)
	}
}

// writePump drains the client's queue onto the socket and pings periodically.
func writePump(ctx context.Context, c *websocket.Conn, client *Client, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-client.Send:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for %v: %v", client.ID, err)
				// the read side notices the broken connection and cleans up
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("failed to ping %v: %v, assuming disconnect", client.ID, err)
				return
			}
		}
	}
}
