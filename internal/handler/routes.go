package handler

import "github.com/gin-gonic/gin"

// RegisterAPI mounts the v1 API on group
func RegisterAPI(apiV1 *gin.RouterGroup, search *SearchHandler, limits *RateLimitHandler, profiles *ProfileViewHandler) {
	// Search endpoints
	apiV1.POST("/search", search.Search)
	apiV1.POST("/search/stream", search.SearchStream) // Streaming search
	apiV1.GET("/searches", search.ListSearches)
	apiV1.GET("/searches/:id", search.GetSearch)

	// Rate limiter endpoints
	apiV1.GET("/ratelimit/status", limits.Status)
	apiV1.POST("/ratelimit/reset-session", limits.ResetSession)
	apiV1.POST("/ratelimit/emergency-stop", limits.EmergencyStop)

	// Profile view quota, shared with external agents
	apiV1.GET("/profile-views/permit", profiles.Permit)
	apiV1.POST("/profile-views", profiles.Record)
}
