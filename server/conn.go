package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"trafficsim/internal/session"
	"trafficsim/internal/simulation"
)

const (
	writeWait      = 1 * time.Second
	maxMessageSize = 8192
	pingResolution = 200 * time.Millisecond
	pongWait       = pingResolution * 4
)

// conn binds one websocket to one simulation session: every text message it
// reads is a command line, and every reply is either the binary frame
// output of a "step" command or a text error for a rejected command.
type conn struct {
	sock    *websock
	sess    *session.Session
	rootCtx context.Context
}

func newConn(ws *websocket.Conn, ctx context.Context, cfg simulation.Config) *conn {
	ws.SetReadLimit(maxMessageSize)
	return &conn{
		sock:    newWebsock(ws),
		sess:    session.NewWithConfig(cfg),
		rootCtx: ctx,
	}
}

// Sync drives the connection until the client disconnects, the context is
// cancelled, or an unrecoverable socket error occurs.
func (c *conn) Sync() error {
	group, groupCtx := errgroup.WithContext(c.rootCtx)

	group.Go(func() error {
		return c.readCommands(groupCtx)
	})
	group.Go(func() error {
		return c.pingPong(groupCtx)
	})

	return group.Wait()
}

// readCommands blocks reading text command messages and applies each to the
// session, replying with the command's output. A parse/simulation error is
// reported back to the client as a text message rather than closing the
// connection, matching the protocol's position that malformed commands carry
// no required recovery state.
func (c *conn) readCommands(ctx context.Context) error {
	for {
		var line string
		err := c.sock.Read(ctx, func(ws *websocket.Conn) error {
			msgType, data, readErr := ws.ReadMessage()
			if readErr != nil {
				return readErr
			}
			if msgType != websocket.TextMessage {
				return fmt.Errorf("unexpected message type %d", msgType)
			}
			line = string(data)
			return nil
		})
		if err != nil {
			return err
		}

		out, handleErr := c.sess.Handle(line)
		if handleErr != nil {
			if writeErr := c.writeText(ctx, "error: "+handleErr.Error()); writeErr != nil {
				return writeErr
			}
			continue
		}
		if out == nil {
			continue
		}
		if err := c.writeBinary(ctx, out); err != nil {
			return err
		}
	}
}

func (c *conn) writeText(ctx context.Context, msg string) error {
	return c.sock.Write(ctx, func(ws *websocket.Conn) error {
		if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return ws.WriteMessage(websocket.TextMessage, []byte(msg))
	})
}

func (c *conn) writeBinary(ctx context.Context, payload []byte) error {
	return c.sock.Write(ctx, func(ws *websocket.Conn) error {
		if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return ws.WriteMessage(websocket.BinaryMessage, payload)
	})
}

// pingPong checks client liveness on a fixed tick, mirroring the rate at
// which a well-behaved client is expected to answer pings.
func (c *conn) pingPong(ctx context.Context) error {
	pong := make(chan struct{})
	defer close(pong)
	c.sock.ws.SetPongHandler(func(_ string) error {
		pong <- struct{}{}
		return nil
	})

	ticker := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker:
			if time.Since(lastPong) > pongWait {
				return fmt.Errorf("client disconnect: pong deadline exceeded")
			}
			err := c.sock.Write(ctx, func(ws *websocket.Conn) error {
				return ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			})
			if err != nil && isError(err) {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}
