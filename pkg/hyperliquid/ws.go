package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// midsFreshFor bounds how long feed data is served before callers fall back
// to the REST API.
const midsFreshFor = 10 * time.Second

// MidsFeed keeps a live copy of all mid prices from the websocket stream.
type MidsFeed struct {
	url    string
	logger *logrus.Logger

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	mids      map[string]string
	updatedAt time.Time
}

type wsSubscription struct {
	Method       string `json:"method"`
	Subscription struct {
		Type string `json:"type"`
	} `json:"subscription"`
}

type wsMessage struct {
	Channel string `json:"channel"`
	Data    struct {
		Mids map[string]string `json:"mids"`
	} `json:"data"`
}

func NewMidsFeed(url string, logger *logrus.Logger) *MidsFeed {
	return &MidsFeed{
		url:    url,
		logger: logger,
		mids:   make(map[string]string),
	}
}

func (f *MidsFeed) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.connected {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}

	var sub wsSubscription
	sub.Method = "subscribe"
	sub.Subscription.Type = "allMids"
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	f.conn = conn
	f.connected = true

	go f.readLoop(ctx)
	go f.keepAlive(ctx)

	return nil
}

// Mids returns a copy of the latest mid prices and whether they are fresh
// enough to serve.
func (f *MidsFeed) Mids() (map[string]string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.mids) == 0 || time.Since(f.updatedAt) > midsFreshFor {
		return nil, false
	}
	mids := make(map[string]string, len(f.mids))
	for coin, px := range f.mids {
		mids[coin] = px
	}
	return mids, true
}

func (f *MidsFeed) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			f.handleDisconnect()
			return
		default:
			_, data, err := f.conn.ReadMessage()
			if err != nil {
				f.logger.WithError(err).Error("Failed to read websocket message")
				f.handleDisconnect()
				return
			}

			var msg wsMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				f.logger.WithError(err).Debug("Ignoring unparseable websocket message")
				continue
			}
			if msg.Channel != "allMids" || len(msg.Data.Mids) == 0 {
				continue
			}

			f.mu.Lock()
			f.mids = msg.Data.Mids
			f.updatedAt = time.Now()
			f.mu.Unlock()
		}
	}
}

func (f *MidsFeed) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.mu.Lock()
			if f.connected {
				if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.logger.WithError(err).Error("Failed to send ping")
					f.mu.Unlock()
					f.handleDisconnect()
					continue
				}
			}
			f.mu.Unlock()
		}
	}
}

func (f *MidsFeed) handleDisconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connected = false
	if f.conn != nil {
		f.conn.Close()
	}
}
