package streamControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StoreEventsHandler is the public SSE stream for a store's dashboards.
// Frames are written as they arrive from the hub; a keep-alive comment is
// sent on a jittered interval so idle proxies do not cut the connection.
// Any write failure unregisters the subscriber.
func StoreEventsHandler(db *gorm.DB, hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var store models.Store
		if err := db.Where("slug = ? AND is_active = ?", c.Param("slug"), true).First(&store).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Writer.WriteHeader(http.StatusOK)
		c.Writer.Flush()

		sub := hub.Subscribe(store.ID)
		defer hub.Unsubscribe(sub)

		write := func(frame []byte) bool {
			if _, err := c.Writer.Write(frame); err != nil {
				return false
			}
			c.Writer.Flush()
			return true
		}

		for {
			select {
			case frame, ok := <-sub.Frames():
				if !ok {
					return
				}
				if !write(frame) {
					return
				}
			case <-time.After(events.KeepAliveDelay()):
				if !write(events.KeepAliveFrame()) {
					return
				}
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}

// AgentFeedHandler is the websocket feed for print-agent devices. It
// pushes the same frames the SSE stream carries; the read loop exists
// only to notice the client going away. The agent middleware has already
// resolved the store onto the context.
func AgentFeedHandler(hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sub := hub.Subscribe(c.GetUint("store_id"))
		defer hub.Unsubscribe(sub)

		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case frame, ok := <-sub.Frames():
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					return
				}
			case <-time.After(events.KeepAliveDelay()):
				if err := conn.WriteMessage(websocket.TextMessage, events.KeepAliveFrame()); err != nil {
					return
				}
			case <-gone:
				return
			}
		}
	}
}
