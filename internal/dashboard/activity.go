package dashboard

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"procurement/internal/activity"
	"procurement/internal/client"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the guard has already checked the session cookie
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) Activity(c *gin.Context) {
	target, err := activity.ParseTarget(c.Param("kind"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "not_found": true})
		return
	}
	p, err := listParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	page, err := activity.NewViewer(session(c), h.cache).Load(c.Request.Context(), target, p.Search, p.Page, p.PerPage)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// liveCommand is what the browser sends on the activity socket
type liveCommand struct {
	Type string `json:"type"` // "search" or "page"
	Term string `json:"term,omitempty"`
	Page int    `json:"page,omitempty"`
}

// liveMessage is what the dashboard sends back
type liveMessage struct {
	Type  string         `json:"type"` // "page" or "error"
	Page  *activity.Page `json:"page,omitempty"`
	Error string         `json:"error,omitempty"`
}

// ActivityLive streams the activity feed: search input is debounced and
// every committed term reloads from page 1.
func (h *Handler) ActivityLive(c *gin.Context) {
	target, err := activity.ParseTarget(c.Param("kind"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "not_found": true})
		return
	}
	perPage := 10
	if v, err := strconv.Atoi(c.Query("per_page")); err == nil && v > 0 {
		perPage = v
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("Activity WebSocket upgrade failed:", err)
		return
	}

	send := make(chan liveMessage, 16)
	ctx, cancel := context.WithCancel(context.Background())
	live := activity.NewLive(ctx, activity.NewViewer(session(c), h.cache), target, perPage, h.wsDelay, func(p activity.Page, err error) {
		msg := liveMessage{Type: "page", Page: &p}
		if err != nil {
			msg = liveMessage{Type: "error", Error: client.MessageOf(err)}
		}
		select {
		case send <- msg:
		case <-ctx.Done():
		}
	})

	go func() {
		defer conn.Close()
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
		}
	}()

	go func() {
		defer func() {
			live.Close()
			cancel()
		}()
		live.Start()
		for {
			var cmd liveCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("activity socket: %v", err)
				}
				return
			}
			switch cmd.Type {
			case "search":
				live.Search(cmd.Term)
			case "page":
				live.SetPage(cmd.Page)
			}
		}
	}()
}
