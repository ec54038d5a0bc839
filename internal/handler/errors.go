package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"leadfinder/internal/ratelimit"
	"leadfinder/internal/service"
)

// statusFor maps service errors to an HTTP status and response body
func statusFor(err error) (int, gin.H) {
	var refusal *ratelimit.RefusalError
	switch {
	case errors.As(err, &refusal):
		return http.StatusTooManyRequests, gin.H{
			"error":               refusal.Reason,
			"kind":                refusal.Kind.String(),
			"retry_after_seconds": retryAfterSeconds(refusal.RetryAfter),
		}
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case errors.Is(err, service.ErrLadderFailed):
		return http.StatusBadGateway, gin.H{"error": "Search failed: " + err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, gin.H{"error": "Search timed out"}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, gin.H{"error": "Search aborted"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()}
	}
}

// writeError sends the mapped error, with Retry-After on refusals
func writeError(c *gin.Context, err error) {
	var refusal *ratelimit.RefusalError
	if errors.As(err, &refusal) {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(refusal.RetryAfter)))
	}
	status, body := statusFor(err)
	c.JSON(status, body)
}

func retryAfterSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
