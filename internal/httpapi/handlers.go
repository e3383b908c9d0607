// Package httpapi holds the REST and webhook boundary.
package httpapi

import (
	"errors"
	"net/http"

	"call-relay/internal/calls"
	"call-relay/internal/session"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Calls *calls.Orchestrator
	Store *session.Store
}

type initiateCallRequest struct {
	To         string `json:"to"`
	CampaignID string `json:"campaignId"`
	AgentID    string `json:"agentId"`
	Script     string `json:"script"`
}

// InitiateCall places an outbound call and returns the session identifiers.
func (h Handlers) InitiateCall(c *gin.Context) {
	var req initiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.Calls.Initiate(c.Request.Context(), calls.InitiateRequest{
		To:         req.To,
		CampaignID: req.CampaignID,
		AgentID:    req.AgentID,
		Script:     req.Script,
	})
	switch {
	case err == nil:
	case errors.Is(err, calls.ErrNumberRequired):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "phone number is required"})
		return
	case errors.Is(err, calls.ErrProviderNotConfigured):
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "telephony provider not configured"})
		return
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"sessionId":      res.SessionID,
		"providerCallId": res.ProviderCallID,
	})
}

// GetSession returns one full session record, event trail included.
func (h Handlers) GetSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	sess, err := h.Store.Get(sessionID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// ListSessions returns summaries of every tracked session.
func (h Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Summaries())
}
