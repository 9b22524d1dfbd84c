package webchat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cortexhub/mnemo/internal/channel"
)

// WebChatAdapter is the browser dev channel. It owns no listener; the HTTP
// server mounts Handler on /ws.
type WebChatAdapter struct {
	enabled  bool
	incoming chan *channel.Message
	upgrader websocket.Upgrader
	conns    map[string]*websocket.Conn
	connMux  sync.RWMutex
	stopCh   chan struct{}
	logger   *slog.Logger
}

type WSMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	UserID  string `json:"user_id,omitempty"`
}

func NewWebChatAdapter(enabled bool, logger *slog.Logger) *WebChatAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebChatAdapter{
		enabled:  enabled,
		incoming: make(chan *channel.Message, 100),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns:  make(map[string]*websocket.Conn),
		stopCh: make(chan struct{}),
		logger: logger,
	}
}

func (w *WebChatAdapter) Name() string {
	return "webchat"
}

func (w *WebChatAdapter) IsEnabled() bool {
	return w.enabled
}

func (w *WebChatAdapter) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		close(w.stopCh)
	}()
	return nil
}

func (w *WebChatAdapter) Stop() error {
	close(w.incoming)
	return nil
}

// Handler upgrades /ws requests and pumps frames into the adapter queue.
func (w *WebChatAdapter) Handler() http.Handler {
	return http.HandlerFunc(w.wsHandler)
}

func (w *WebChatAdapter) SendMessage(chatID string, resp *channel.Response) error {
	w.connMux.RLock()
	conn, exists := w.conns[chatID]
	w.connMux.RUnlock()

	if !exists {
		return nil
	}

	msg := WSMessage{
		Type:    "message",
		Content: resp.Content,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (w *WebChatAdapter) Incoming() <-chan *channel.Message {
	return w.incoming
}

func (w *WebChatAdapter) wsHandler(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	w.connMux.Lock()
	w.conns[userID] = conn
	w.connMux.Unlock()

	defer func() {
		w.connMux.Lock()
		delete(w.conns, userID)
		w.connMux.Unlock()
		conn.Close()
	}()

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.Debug("websocket read ended", "error", err)
			}
			return
		}
		if msg.Type != "message" || msg.Content == "" {
			continue
		}

		w.incoming <- &channel.Message{
			ID:        strconv.FormatInt(time.Now().UnixNano(), 10),
			Channel:   "webchat",
			ChatID:    userID,
			UserID:    userID,
			Text:      msg.Content,
			Kind:      channel.KindDirect,
			Metadata:  map[string]string{"connection_id": userID},
			Timestamp: time.Now().Unix(),
		}
	}
}
