package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/collab"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/middleware"
)

// RegisterSessionRoutes mounts the session lifecycle endpoints. A NotLive
// response on ping tells the client its session ended; the expected
// reaction is a fresh create-or-join.
func RegisterSessionRoutes(rg gin.IRoutes, orch *collab.Orchestrator) {
	rg.POST("/documents/:id/session", func(c *gin.Context) {
		res, err := orch.CreateOrJoin(c.Request.Context(), c.Param("id"), middleware.UserID(c))
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	rg.GET("/documents/:id/room", func(c *gin.Context) {
		state, err := orch.State(c.Request.Context(), c.Param("id"), middleware.UserID(c))
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, state)
	})

	rg.POST("/sessions/:id/ping", func(c *gin.Context) {
		if err := orch.Ping(c.Request.Context(), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	rg.POST("/sessions/:id/end", func(c *gin.Context) {
		err := orch.End(c.Request.Context(), c.Param("id"), middleware.UserID(c), collab.TriggerClient)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, collab.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, collab.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, collab.ErrNotLive):
		c.JSON(http.StatusGone, gin.H{"error": "session is not live"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
