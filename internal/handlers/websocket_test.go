package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/models"
	"github.com/ternarybob/refero/internal/services/auth"
)

// headerSessions resolves the session from a request header so tests
// can connect as different users without a login round trip.
type headerSessions struct{}

func (headerSessions) SessionFromRequest(r *http.Request) *auth.Session {
	username := r.Header.Get("X-Test-User")
	if username == "" {
		return nil
	}
	return &auth.Session{
		Token:     "token-" + username,
		Username:  username,
		Role:      models.RoleAnalyst,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func dialWS(t *testing.T, server *httptest.Server, username string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{}
	if username != "" {
		header.Set("X-Test-User", username)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if resp != nil {
		defer resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
	})

	// Drain the initial status frame
	var status WSMessage
	require.NoError(t, conn.ReadJSON(&status))
	require.Equal(t, "status", status.Type)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketRejectsMissingSession(t *testing.T) {
	handler := NewWebSocketHandler(nil, headerSessions{}, 0, true, arbor.NewLogger())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil {
		defer resp.Body.Close()
	}
	require.Error(t, err)
	require.Nil(t, conn)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSendToUserTargetsOnlyMatchingConnections(t *testing.T) {
	handler := NewWebSocketHandler(nil, headerSessions{}, 0, true, arbor.NewLogger())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	analyst := dialWS(t, server, "analyst")
	other := dialWS(t, server, "viewer")

	sent := handler.SendToUser("analyst", WSMessage{
		Type:    "job_update",
		Payload: map[string]interface{}{"jobId": "job-1"},
	})
	assert.Equal(t, 1, sent)

	msg := readMessage(t, analyst)
	assert.Equal(t, "job_update", msg.Type)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "job-1", payload["jobId"])

	// The other user's connection stays quiet
	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var stray WSMessage
	assert.Error(t, other.ReadJSON(&stray))

	assert.Equal(t, 0, handler.SendToUser("nobody", WSMessage{Type: "job_update"}))
}

func TestBroadcastRespectsSubscription(t *testing.T) {
	handler := NewWebSocketHandler(nil, headerSessions{}, 0, true, arbor.NewLogger())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	subscribed := dialWS(t, server, "analyst")
	idle := dialWS(t, server, "viewer")

	require.NoError(t, subscribed.WriteJSON(WSMessage{Type: "subscribe_jobs"}))

	// Subscription is applied by the read loop; poll until the
	// broadcast lands rather than racing it.
	notification := models.JobNotification{JobID: "job-2", Status: models.JobStatusCompleted}
	deadline := time.Now().Add(2 * time.Second)
	var msg WSMessage
	for {
		handler.BroadcastJobUpdate(notification)

		subscribed.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		if err := subscribed.ReadJSON(&msg); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscribed client never received the broadcast")
		}
	}
	assert.Equal(t, "job_update", msg.Type)

	raw, err := json.Marshal(msg.Payload)
	require.NoError(t, err)
	var got models.JobNotification
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "job-2", got.JobID)

	idle.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var stray WSMessage
	assert.Error(t, idle.ReadJSON(&stray))
}
