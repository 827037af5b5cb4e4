package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	requestdomain "github.com/smallbiznis/luggagehub/internal/request/domain"
)

// ListActiveRequests is the public board of open requests of one type.
func (s *Server) ListActiveRequests(c *gin.Context) {
	requestType := requestdomain.Type(strings.ToLower(strings.TrimSpace(c.DefaultQuery("type", string(requestdomain.TypeSend)))))

	resp, err := s.requestSvc.ListActive(c.Request.Context(), requestType)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRequest(c *gin.Context) {
	resp, err := s.requestSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateRequest(c *gin.Context) {
	var req requestdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = currentUserID(c)

	resp, err := s.requestSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListMyRequests(c *gin.Context) {
	resp, err := s.requestSvc.ListMine(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateRequest(c *gin.Context) {
	var req requestdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))
	req.ActorID = currentUserID(c)

	resp, err := s.requestSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CompleteRequest(c *gin.Context) {
	resp, err := s.requestSvc.Complete(c.Request.Context(), currentUserID(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRequest(c *gin.Context) {
	if err := s.requestSvc.Delete(c.Request.Context(), currentUserID(c), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
