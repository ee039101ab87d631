package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"popup-service/internal/models"
	"popup-service/internal/observability"
	"popup-service/internal/service"
)

// BroadcastHandler manages broadcast lifecycle endpoints.
type BroadcastHandler struct {
	svc *service.BroadcastService
}

// NewBroadcastHandler builds a BroadcastHandler.
func NewBroadcastHandler(svc *service.BroadcastService) *BroadcastHandler {
	return &BroadcastHandler{svc: svc}
}

// Create stores a new broadcast and returns its delete token. The token
// appears in this response and nowhere else.
func (h *BroadcastHandler) Create(c *gin.Context) {
	var req service.CreateBroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create broadcast"})
		return
	}

	log.Printf("broadcast created id=%d ip=%s request_id=%s",
		b.ID, observability.IPFromRequest(c.Request), observability.RequestIDFromRequest(c.Request))
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "delete_token": b.DeleteToken})
}

// List returns all non-expired broadcasts ordered by ascending expiry.
func (h *BroadcastHandler) List(c *gin.Context) {
	broadcasts, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load broadcasts"})
		return
	}

	views := make([]models.BroadcastView, 0, len(broadcasts))
	for _, b := range broadcasts {
		views = append(views, b.View())
	}
	c.JSON(http.StatusOK, views)
}

// Delete removes the broadcast matching the supplied token.
func (h *BroadcastHandler) Delete(c *gin.Context) {
	var req struct {
		DeleteToken string `json:"delete_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing delete_token"})
		return
	}

	err := h.svc.Delete(c.Request.Context(), req.DeleteToken)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing delete_token"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid or expired token"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete broadcast"})
	}
}
