package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-pms/internal/event"
)

func TestHubBroadcastsBusEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := event.NewBus()
	hub := NewHub(bus)
	go hub.Run(ctx)

	server := httptest.NewServer(NewHandler(ctx, hub, nil))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Registration is asynchronous; keep emitting until the client sees one.
	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	received := make(chan event.Event, 1)
	go func() {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var e event.Event
		if json.Unmarshal(data, &e) == nil {
			received <- e
		}
	}()

	for time.Now().Before(deadline) {
		event.Emit(bus, event.TypeRecordArchived, map[string]string{"id": "rb-1"}, "u-admin")
		select {
		case e := <-received:
			assert.Equal(t, event.TypeRecordArchived, e.Type)
			assert.Equal(t, "u-admin", e.ActorID)
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
	t.Fatal("no event received over websocket")
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://pms.example.com"})

	r := httptest.NewRequest("GET", "/api/v1/ws", nil)
	assert.True(t, check(r), "requests without Origin are allowed")

	r.Header.Set("Origin", "https://pms.example.com")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(r))

	assert.True(t, originChecker([]string{"*"})(r))
	assert.True(t, originChecker(nil)(r))
}
