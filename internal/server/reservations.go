package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reservationdomain "github.com/smallbiznis/luggagehub/internal/reservation/domain"
)

func (s *Server) CreateReservation(c *gin.Context) {
	var req reservationdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ListingID = strings.TrimSpace(c.Param("id"))
	req.BuyerID = currentUserID(c)

	resp, err := s.reservationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListListingReservations(c *gin.Context) {
	resp, err := s.reservationSvc.ListForListing(c.Request.Context(), strings.TrimSpace(c.Param("id")), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMyReservations(c *gin.Context) {
	resp, err := s.reservationSvc.ListForBuyer(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReservation(c *gin.Context) {
	resp, err := s.reservationSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TransitionReservation(c *gin.Context) {
	var req reservationdomain.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ReservationID = strings.TrimSpace(c.Param("id"))
	req.ActorID = currentUserID(c)

	resp, err := s.reservationSvc.Transition(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
