package httpapi

import (
	"net/http"

	"call-relay/internal/telephony"
	"call-relay/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Provider webhook handlers. The provider retries on non-2xx, so every branch
// acknowledges, including unknown sessions. Voice endpoints always answer with
// a well-formed voice document.
//
// NOTE: These endpoints should be protected by Twilio signature validation in
// production.

// Voice answers the provider's request for call instructions.
func (h Handlers) Voice(c *gin.Context) {
	sessionID := c.Query("sessionId")
	callSid := c.PostForm("CallSid")
	callStatus := c.PostForm("CallStatus")

	vr := h.Calls.VoiceInstructions(sessionID, callSid, callStatus)
	renderVoice(c, vr)
}

// StatusCallback records provider-reported lifecycle transitions.
func (h Handlers) StatusCallback(c *gin.Context) {
	sessionID := c.Query("sessionId")
	callSid := c.PostForm("CallSid")
	callStatus := c.PostForm("CallStatus")

	if err := h.Calls.HandleStatusCallback(sessionID, callSid, callStatus); err != nil {
		logger.FromGin(c).Debug("status callback ignored", "session_id", sessionID, "err", err)
	}
	c.String(http.StatusOK, "OK")
}

// Gather receives the caller's digit or speech input.
func (h Handlers) Gather(c *gin.Context) {
	sessionID := c.Query("sessionId")
	callSid := c.PostForm("CallSid")
	digits := c.PostForm("Digits")
	speech := c.PostForm("SpeechResult")

	vr := h.Calls.HandleUserInput(sessionID, callSid, digits, speech)
	renderVoice(c, vr)
}

// NoInput handles a gather that timed out without caller input.
func (h Handlers) NoInput(c *gin.Context) {
	sessionID := c.Query("sessionId")
	callSid := c.PostForm("CallSid")

	vr := h.Calls.HandleNoInput(sessionID, callSid)
	renderVoice(c, vr)
}

func renderVoice(c *gin.Context, vr *telephony.VoiceResponse) {
	doc, err := vr.Render()
	if err != nil {
		logger.FromGin(c).Error("voice document render failed", "err", err)
		fallback, _ := telephony.NewVoiceResponse("", "").Hangup().Render()
		c.Data(http.StatusOK, "text/xml", []byte(fallback))
		return
	}
	c.Data(http.StatusOK, "text/xml", []byte(doc))
}
