package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"popup-service/internal/notify"
)

// SystemHandler serves health and push diagnostics endpoints.
type SystemHandler struct {
	cfg        notify.WebPushConfig
	dispatcher *notify.Dispatcher
}

// NewSystemHandler builds a SystemHandler.
func NewSystemHandler(cfg notify.WebPushConfig, dispatcher *notify.Dispatcher) *SystemHandler {
	return &SystemHandler{cfg: cfg, dispatcher: dispatcher}
}

// Health reports liveness and whether push is configured.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"has_vapid_public":  h.cfg.VAPIDPublicKey != "",
		"has_vapid_private": h.cfg.VAPIDPrivateKey != "",
	})
}

// VAPIDPublicKey hands clients the public key they need to subscribe.
func (h *SystemHandler) VAPIDPublicKey(c *gin.Context) {
	if h.cfg.VAPIDPublicKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "VAPID_PUBLIC_KEY is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": h.cfg.VAPIDPublicKey})
}

// TestPush triggers a diagnostic fan-out to every push subscription.
func (h *SystemHandler) TestPush(c *gin.Context) {
	h.dispatcher.FanOutPush(c.Request.Context(), notify.PushPayload{
		Title: "Push test",
		Body:  "If you see this, push works end-to-end.",
	})
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
