package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/luggagehub/internal/observability/context"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"

	contextUserIDKey = "user_id"
)

// UserRequired trusts the X-User-ID header set by the upstream identity proxy
// and provisions the user row on first sight.
func (s *Server) UserRequired() gin.HandlerFunc {
	return s.resolveUser(true)
}

// UserOptional resolves the caller when the header is present.
func (s *Server) UserOptional() gin.HandlerFunc {
	return s.resolveUser(false)
}

func (s *Server) resolveUser(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			if required {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			c.Next()
			return
		}

		id, err := snowflake.ParseString(raw)
		if err != nil || id <= 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.userSvc.Ensure(c.Request.Context(), userdomain.EnsureRequest{
			UserID:   id,
			Username: strings.TrimSpace(c.GetHeader(HeaderUserName)),
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, user.ID)
		ctx := obscontext.WithUserID(c.Request.Context(), user.ID.String())
		ctx = obscontext.WithActor(ctx, "user", user.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// currentUserID returns the resolved caller, or 0 for anonymous requests.
func currentUserID(c *gin.Context) snowflake.ID {
	value, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0
	}
	id, _ := value.(snowflake.ID)
	return id
}
