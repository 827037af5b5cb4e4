package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
)

func (s *Server) ListSubscriptions(c *gin.Context) {
	activeOnly := false
	if raw := strings.TrimSpace(c.Query("active_only")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			AbortWithError(c, newValidationError("active_only", "invalid_active_only", "invalid active_only"))
			return
		}
		activeOnly = parsed
	}

	resp, err := s.subscriptionSvc.ListForUser(c.Request.Context(), currentUserID(c), activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// UpdateSubscription replaces the preference set (and optionally the active
// flag) in one write.
func (s *Server) UpdateSubscription(c *gin.Context) {
	var req subscriptiondomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = currentUserID(c)
	req.SubscriptionID = strings.TrimSpace(c.Param("id"))

	resp, err := s.subscriptionSvc.UpdatePreferences(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
