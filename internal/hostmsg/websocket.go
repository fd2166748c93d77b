package hostmsg

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Maximum message size allowed from the host.
	maxMessageSize = 64 * 1024
	// Time allowed to write a control message to the host.
	writeWait = 5 * time.Second
	// Time allowed to read the next pong from the host.
	pongWait = 60 * time.Second
	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var errDisconnected = errors.New("host disconnected")

// Handler returns an http.Handler that upgrades each request to a websocket
// and feeds the host's frames into l. Each connection is one host channel,
// torn down when the host disconnects. checkOrigin decides which browser
// origins may connect; nil accepts only same-host origins.
func Handler(l *Listener, checkOrigin func(r *http.Request) bool) http.Handler {
	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("hostmsg: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		connID := uuid.New().String()
		if l.verbose {
			log.Printf("hostmsg: host %s connected from %s", connID, r.RemoteAddr)
		}

		msgs := make(chan Message)
		sub := l.Attach(r.Context(), msgs)
		defer sub.Close()

		group, ctx := errgroup.WithContext(r.Context())
		group.Go(func() error {
			defer close(msgs)
			return readFrames(ctx, conn, connID, msgs)
		})
		group.Go(func() error {
			return keepAlive(ctx, conn)
		})
		group.Go(func() error {
			// Unblocks a pending read once either side has stopped.
			<-ctx.Done()
			_ = conn.Close()
			return nil
		})

		if err := group.Wait(); err != nil && !errors.Is(err, errDisconnected) {
			log.Printf("hostmsg: host %s: %v", connID, err)
		} else if l.verbose {
			log.Printf("hostmsg: host %s disconnected", connID)
		}
	})
}

// readFrames decodes frames into msgs until the connection fails. Frames
// that are not valid messages are logged and skipped; nothing is sent back.
func readFrames(ctx context.Context, conn *websocket.Conn, connID string, msgs chan<- Message) error {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("hostmsg: websocket read (%s): %v", connID, err)
			}
			return errDisconnected
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("hostmsg: invalid message from %s: %v", connID, err)
			continue
		}

		select {
		case msgs <- msg:
		case <-ctx.Done():
			return nil
		}
	}
}

// keepAlive pings the host until ctx is done or a ping fails.
func keepAlive(ctx context.Context, conn *websocket.Conn) error {
	pinger := channerics.NewTicker(ctx.Done(), pingPeriod)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}
