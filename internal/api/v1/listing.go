package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openhousehq/openhouse/internal/api/dto"
	ierr "github.com/openhousehq/openhouse/internal/errors"
	"github.com/openhousehq/openhouse/internal/logger"
	"github.com/openhousehq/openhouse/internal/service"
	"github.com/openhousehq/openhouse/internal/types"
)

type ListingHandler struct {
	service service.ListingService
	log     *logger.Logger
}

func NewListingHandler(service service.ListingService, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		log:     log,
	}
}

func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateListing(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *ListingHandler) GetListing(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.GetListing(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ListingHandler) ListListings(c *gin.Context) {
	var filter types.ListingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListListings(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ListingHandler) UpdateListing(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateListing(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ListingHandler) UpdateListingStatus(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdateListingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateListingStatus(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ListingHandler) ArchiveListing(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.ArchiveListing(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ListingHandler) RestoreListing(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.RestoreListing(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ListingHandler) DeleteListing(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.DeleteListing(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

func (h *ListingHandler) BatchDeleteListings(c *gin.Context) {
	var req dto.BatchDeleteListingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.BatchDeleteListings(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
