package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kataras/golog"

	"leadfinder/internal/model"
	"leadfinder/internal/ratelimit"
)

// ProfileViewLogger stores profile visits
type ProfileViewLogger interface {
	LogProfileView(ctx context.Context, profileURL string, success bool) error
}

// ProfileViewHandler lets an external agent share the profile view quota
type ProfileViewHandler struct {
	limiter *ratelimit.RateLimiter
	logger  ProfileViewLogger
}

// NewProfileViewHandler creates a new profile view handler. logger may be nil.
func NewProfileViewHandler(limiter *ratelimit.RateLimiter, logger ProfileViewLogger) *ProfileViewHandler {
	return &ProfileViewHandler{
		limiter: limiter,
		logger:  logger,
	}
}

// Permit handles GET /api/v1/profile-views/permit
func (h *ProfileViewHandler) Permit(c *gin.Context) {
	decision := h.limiter.CheckProfileView()
	if !decision.Allowed {
		wait := retryAfterSeconds(decision.RetryAfter)
		c.Header("Retry-After", strconv.Itoa(wait))
		c.JSON(http.StatusTooManyRequests, model.ProfileViewPermit{
			Allowed:      false,
			Reason:       decision.Reason,
			DelaySeconds: float64(wait),
		})
		return
	}

	c.JSON(http.StatusOK, model.ProfileViewPermit{
		Allowed:      true,
		Reason:       decision.Reason,
		DelaySeconds: h.limiter.GetDelay(ratelimit.ActionProfile).Seconds(),
	})
}

// Record handles POST /api/v1/profile-views
func (h *ProfileViewHandler) Record(c *gin.Context) {
	var req model.ProfileViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	success := true
	if req.Success != nil {
		success = *req.Success
	}

	h.limiter.RecordProfileView(success)

	if h.logger != nil {
		if err := h.logger.LogProfileView(c.Request.Context(), req.ProfileURL, success); err != nil {
			golog.Warnf("⚠️  Failed to log profile view: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  h.limiter.GetStatus(),
	})
}
