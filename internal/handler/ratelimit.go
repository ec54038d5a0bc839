package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kataras/golog"

	"leadfinder/internal/ratelimit"
)

// RateLimitHandler exposes the limiter's status and session controls
type RateLimitHandler struct {
	limiter *ratelimit.RateLimiter
}

// NewRateLimitHandler creates a new rate limit handler
func NewRateLimitHandler(limiter *ratelimit.RateLimiter) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter}
}

// Status handles GET /api/v1/ratelimit/status
func (h *RateLimitHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.limiter.GetStatus())
}

// ResetSession handles POST /api/v1/ratelimit/reset-session
func (h *RateLimitHandler) ResetSession(c *gin.Context) {
	h.limiter.ResetSession()
	golog.Infof("Rate limiter session reset")
	c.JSON(http.StatusOK, h.limiter.GetStatus())
}

// EmergencyStop handles POST /api/v1/ratelimit/emergency-stop
func (h *RateLimitHandler) EmergencyStop(c *gin.Context) {
	h.limiter.EmergencyStop()
	c.JSON(http.StatusOK, h.limiter.GetStatus())
}
