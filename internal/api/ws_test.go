package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threat-monitor/internal/logging"
	"threat-monitor/internal/models"
)

func hubAlert(title string) models.ThreatAlert {
	return models.ThreatAlert{
		ID:       "a1",
		Severity: models.SeverityCritical,
		Title:    title,
		Status:   models.AlertStatusNew,
	}
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	r := gin.New()
	r.GET("/ws/alerts", hub.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/alerts"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.clientCount() == 1
	}, time.Second, 10*time.Millisecond)
	return conn
}

func TestHubDeliversBroadcastToClient(t *testing.T) {
	hub := NewHub(logging.Nop())
	conn := dialHub(t, hub)

	hub.Broadcast(hubAlert("Ransomware victim listed: Acme Corp"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type  string             `json:"type"`
		Alert models.ThreatAlert `json:"alert"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "alert", msg.Type)
	assert.Equal(t, "Ransomware victim listed: Acme Corp", msg.Alert.Title)
}

func TestHubBroadcastNeverBlocksOnSlowClient(t *testing.T) {
	hub := NewHub(logging.Nop())
	dialHub(t, hub) // client never reads

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10*sendBuffer; i++ {
			hub.Broadcast(hubAlert("flood"))
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Broadcast blocked on a client that stopped reading")
	}
}
