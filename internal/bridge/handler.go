package bridge

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/collab"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/logger"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// origin policy is enforced by the deployment's reverse proxy
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes mounts the websocket endpoint. The channel name is the
// session id issued by create-or-join; the first connection to arrive
// seeds the channel from the document's last checkpoint, so the outcome
// does not depend on which client's websocket lands first.
func RegisterRoutes(rg gin.IRoutes, h *Hub) {
	rg.GET("/ws/:sessionId", func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		userID := middleware.UserID(c)

		seed, err := h.core.SeedContent(c.Request.Context(), sessionID)
		if err != nil {
			switch {
			case errors.Is(err, collab.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
			case errors.Is(err, collab.ErrNotLive):
				c.JSON(http.StatusGone, gin.H{"error": "session has ended"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
			}
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warnf("websocket upgrade for session %s: %v", sessionID, err)
			return
		}

		client := newClient(h, sessionID, userID, conn)
		h.Join(client, seed)
		go client.writePump()
		go client.readPump()
	})
}
