package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestInvalidateBroadcastsToClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	go hub.Run()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, c, func(token string) error {
			if token != "good" {
				return errBadToken
			}
			return nil
		})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=bad", nil)
	require.Error(t, err)
	require.Equal(t, 401, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	id := uuid.New()
	hub.Invalidate("rfqs", id)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Invalidation
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, Invalidation{Type: "invalidate", Resource: "rfqs", ID: id.String()}, msg)
}

func TestInvalidateNeverBlocks(t *testing.T) {
	hub := NewHub() // Run not started, nothing drains the buffer
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+10; i++ {
			hub.Invalidate("quotations", uuid.Nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Invalidate blocked on a full buffer")
	}
}

func TestSubscriberReceivesOnlyItsResources(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	go hub.Run()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, c, func(string) error { return nil })
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token=t&resources=quotations,%20evaluations", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Invalidate("suppliers", uuid.Nil)
	hub.Invalidate("evaluations", uuid.Nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Invalidation
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, "evaluations", msg.Resource)
}

func TestParseResources(t *testing.T) {
	require.Nil(t, parseResources(""))
	require.Equal(t, []string{"rfqs", "quotations"}, parseResources(" rfqs,,quotations "))
}

type tokenError string

func (e tokenError) Error() string { return string(e) }

const errBadToken = tokenError("bad token")
