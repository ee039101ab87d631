package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"popup-service/internal/repositories"
)

// SubscriptionHandler registers push and SMS subscribers.
type SubscriptionHandler struct {
	pushRepo repositories.PushSubscriptionRepository
	smsRepo  repositories.SMSSubscriberRepository
}

// NewSubscriptionHandler builds a SubscriptionHandler.
func NewSubscriptionHandler(pushRepo repositories.PushSubscriptionRepository, smsRepo repositories.SMSSubscriberRepository) *SubscriptionHandler {
	return &SubscriptionHandler{pushRepo: pushRepo, smsRepo: smsRepo}
}

// SubscribePush stores a browser push subscription. Re-subscribing the same
// endpoint is a no-op.
func (h *SubscriptionHandler) SubscribePush(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed subscription"})
		return
	}

	if err := h.pushRepo.Upsert(c.Request.Context(), req.Endpoint, req.Keys.P256dh, req.Keys.Auth); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store subscription"})
		return
	}

	log.Printf("push subscription stored: %s", req.Endpoint)
	c.JSON(http.StatusOK, gin.H{"status": "subscribed"})
}

// SubscribeSMS adds a phone number to the alert list. Idempotent.
func (h *SubscriptionHandler) SubscribeSMS(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing phone"})
		return
	}

	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing phone"})
		return
	}

	if err := h.smsRepo.Upsert(c.Request.Context(), phone); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store subscriber"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "subscribed"})
}
