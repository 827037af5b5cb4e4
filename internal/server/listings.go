package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	listingdomain "github.com/smallbiznis/luggagehub/internal/listing/domain"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
	"github.com/smallbiznis/luggagehub/pkg/db/pagination"
)

type listingDetailResponse struct {
	listingdomain.Detail
	Subscription *subscriptiondomain.Subscription `json:"subscription,omitempty"`
}

func (s *Server) ListMarketplace(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.listingSvc.ListMarketplace(c.Request.Context(), listingdomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Listings, "page_info": resp.PageInfo})
}

func (s *Server) CreateListing(c *gin.Context) {
	var req listingdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.SellerID = currentUserID(c)

	resp, err := s.listingSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListMyListings(c *gin.Context) {
	resp, err := s.listingSvc.ListBySeller(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetListing(c *gin.Context) {
	ctx := c.Request.Context()

	detail, err := s.listingSvc.Get(ctx, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := listingDetailResponse{Detail: detail}
	if viewer := currentUserID(c); viewer != 0 {
		sub, err := s.subscriptionSvc.Get(ctx, viewer, detail.ID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		resp.Subscription = sub
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateListing(c *gin.Context) {
	var req listingdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))
	req.ActorID = currentUserID(c)

	resp, err := s.listingSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetListingActive(c *gin.Context) {
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.IsActive == nil {
		AbortWithError(c, newValidationError("is_active", "required", "is_active is required"))
		return
	}

	resp, err := s.listingSvc.SetActive(c.Request.Context(), listingdomain.SetActiveRequest{
		ID:       strings.TrimSpace(c.Param("id")),
		ActorID:  currentUserID(c),
		IsActive: *body.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteListing(c *gin.Context) {
	err := s.listingSvc.Delete(c.Request.Context(), listingdomain.DeleteRequest{
		ID:      strings.TrimSpace(c.Param("id")),
		ActorID: currentUserID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleListingNotify creates the caller's subscription or flips its active flag.
func (s *Server) ToggleListingNotify(c *gin.Context) {
	resp, err := s.subscriptionSvc.Toggle(c.Request.Context(), currentUserID(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
