package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/document"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/document/service"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/middleware"
)

// RegisterDocumentRoutes mounts the document CRUD and membership routes.
// All routes assume AuthMiddleware ran; the caller identity comes from the
// verified token subject.
func RegisterDocumentRoutes(rg gin.IRoutes, svc *service.Service) {
	rg.POST("/documents", func(c *gin.Context) {
		var req struct {
			Title   string `json:"title" binding:"required"`
			Type    string `json:"type" binding:"required"`
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := svc.Create(c.Request.Context(), req.Title, document.Type(req.Type), middleware.UserID(c), req.Content)
		if err != nil {
			if errors.Is(err, service.ErrInvalidType) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "type must be one of text, code, canvas"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": d.ID, "title": d.Title, "type": d.Type, "joinCode": d.JoinCode})
	})

	rg.GET("/documents/:id", func(c *gin.Context) {
		d, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		caller := middleware.UserID(c)
		if d.OwnerID != caller && !d.HasCollaborator(caller) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this document"})
			return
		}
		c.JSON(http.StatusOK, d)
	})

	rg.DELETE("/documents/:id", func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
			writeErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	rg.POST("/documents/join", func(c *gin.Context) {
		var req struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := svc.JoinByCode(c.Request.Context(), req.Code, middleware.UserID(c))
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": d.ID, "title": d.Title, "type": d.Type})
	})

	rg.POST("/documents/:id/collaborators", func(c *gin.Context) {
		var req struct {
			UserID string `json:"userId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.AddCollaborator(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.UserID); err != nil {
			writeErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	rg.DELETE("/documents/:id/collaborators/:userId", func(c *gin.Context) {
		if err := svc.RemoveCollaborator(c.Request.Context(), c.Param("id"), middleware.UserID(c), c.Param("userId")); err != nil {
			writeErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
