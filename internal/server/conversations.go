package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	conversationdomain "github.com/smallbiznis/luggagehub/internal/conversation/domain"
)

// StartConversation opens (or reuses) the caller's thread with the request's owner.
func (s *Server) StartConversation(c *gin.Context) {
	resp, err := s.conversationSvc.Start(c.Request.Context(), currentUserID(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListConversations(c *gin.Context) {
	resp, err := s.conversationSvc.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UnreadMessageCount(c *gin.Context) {
	count, err := s.conversationSvc.UnreadCount(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"unread_messages": count}})
}

// GetConversation returns the thread and marks incoming messages as read.
func (s *Server) GetConversation(c *gin.Context) {
	resp, err := s.conversationSvc.Open(c.Request.Context(), currentUserID(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SendMessage(c *gin.Context) {
	var req conversationdomain.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ConversationID = strings.TrimSpace(c.Param("id"))
	req.SenderID = currentUserID(c)

	resp, err := s.conversationSvc.Send(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) DeleteConversation(c *gin.Context) {
	if err := s.conversationSvc.Delete(c.Request.Context(), currentUserID(c), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
