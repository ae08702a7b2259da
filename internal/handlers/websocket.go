package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
	"github.com/ternarybob/refero/internal/services/auth"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// SessionResolver resolves the browser session attached to a request
type SessionResolver interface {
	SessionFromRequest(r *http.Request) *auth.Session
}

// WSMessage is the envelope for all WebSocket traffic
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type wsClient struct {
	mutex      sync.Mutex
	subscribed bool
	username   string
}

// WebSocketHandler pushes job lifecycle notifications to dashboard clients
type WebSocketHandler struct {
	logger            arbor.ILogger
	sessions          SessionResolver
	eventService      interfaces.EventService
	clients           map[*websocket.Conn]*wsClient
	mu                sync.RWMutex
	progressThrottler *rate.Limiter // Rate limiter for job_progress events
	broadcastProgress bool          // Whether job_progress events reach clients at all
	serverInstanceID  string        // Unique ID generated on startup - clients use to detect server restart
}

func NewWebSocketHandler(eventService interfaces.EventService, sessions SessionResolver, throttleInterval time.Duration, broadcastProgress bool, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:            logger,
		sessions:          sessions,
		eventService:      eventService,
		clients:           make(map[*websocket.Conn]*wsClient),
		broadcastProgress: broadcastProgress,
		serverInstanceID:  uuid.New().String(),
	}

	if throttleInterval > 0 {
		h.progressThrottler = rate.NewLimiter(rate.Every(throttleInterval), 1)
		logger.Debug().
			Str("interval", throttleInterval.String()).
			Msg("Throttler initialized for job_progress events")
	}

	if eventService != nil {
		h.subscribeToJobEvents()
	}

	return h
}

// HandleWebSocket handles WebSocket connections. The session cookie is
// validated before the upgrade; unauthenticated connections are refused.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.SessionFromRequest(r)
	if session == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := &wsClient{username: session.Username}

	h.mu.Lock()
	h.clients[conn] = client
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Str("username", session.Username).Msgf("WebSocket client connected (total: %d)", clientCount)

	h.sendStatus(conn, client)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "subscribe_jobs":
			client.mutex.Lock()
			client.subscribed = true
			client.mutex.Unlock()
		case "unsubscribe_jobs":
			client.mutex.Lock()
			client.subscribed = false
			client.mutex.Unlock()
		}
	}
}

// subscribeToJobEvents wires the pipeline's event bus into the broadcast path
func (h *WebSocketHandler) subscribeToJobEvents() {
	broadcast := func(ctx context.Context, event interfaces.Event) error {
		notification, ok := event.Payload.(models.JobNotification)
		if !ok {
			return nil
		}

		// Progress events are frequent; drop excess updates instead of queueing them
		if event.Type == interfaces.EventJobProgress && h.progressThrottler != nil && !h.progressThrottler.Allow() {
			return nil
		}

		h.BroadcastJobUpdate(notification)
		return nil
	}

	h.eventService.Subscribe(interfaces.EventJobQueued, broadcast)
	h.eventService.Subscribe(interfaces.EventJobCompleted, broadcast)
	h.eventService.Subscribe(interfaces.EventJobFailed, broadcast)
	if h.broadcastProgress {
		h.eventService.Subscribe(interfaces.EventJobProgress, broadcast)
	}
}

// BroadcastJobUpdate sends a job notification to all subscribed clients
func (h *WebSocketHandler) BroadcastJobUpdate(notification models.JobNotification) {
	msg := WSMessage{
		Type:    "job_update",
		Payload: notification,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal job_update message")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	clients := make([]*wsClient, 0, len(h.clients))
	for conn, client := range h.clients {
		conns = append(conns, conn)
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for i, conn := range conns {
		client := clients[i]
		client.mutex.Lock()
		if !client.subscribed {
			client.mutex.Unlock()
			continue
		}
		err := conn.WriteMessage(websocket.TextMessage, data)
		client.mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send job_update to client")
		}
	}
}

// SendToUser delivers a message to every connection belonging to the
// named user. Unlike the broadcast path it ignores the jobs
// subscription: a targeted notice is wanted regardless of whether the
// dashboard is watching the job list. Returns the number of
// connections reached.
func (h *WebSocketHandler) SendToUser(username string, msg WSMessage) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal user message")
		return 0
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	clients := make([]*wsClient, 0, len(h.clients))
	for conn, client := range h.clients {
		if client.username != username {
			continue
		}
		conns = append(conns, conn)
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := 0
	for i, conn := range conns {
		client := clients[i]
		client.mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		client.mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("username", username).Msg("Failed to send message to user")
			continue
		}
		sent++
	}
	return sent
}

// sendStatus sends the initial status frame to a newly connected client
func (h *WebSocketHandler) sendStatus(conn *websocket.Conn, client *wsClient) {
	msg := WSMessage{
		Type: "status",
		Payload: map[string]interface{}{
			"service":          "ONLINE",
			"database":         "CONNECTED",
			"serverInstanceId": h.serverInstanceID,
			"timestamp":        time.Now().Format(time.RFC3339),
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal initial status")
		return
	}

	client.mutex.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	client.mutex.Unlock()

	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send initial status")
	}
}
