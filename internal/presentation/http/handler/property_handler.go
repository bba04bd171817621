package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/application/service"
	"github.com/kodisha/kodisha-api/internal/presentation/http/dto/request"
	"github.com/kodisha/kodisha-api/internal/presentation/http/dto/response"
	"github.com/kodisha/kodisha-api/pkg/pagination"
)

// PropertyHandler handles property and unit HTTP requests
type PropertyHandler struct {
	propertyService *service.PropertyService
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(propertyService *service.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// List handles listing properties
func (h *PropertyHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))
	search := c.Query("search")

	params := &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.propertyService.ListProperties(c.Request.Context(), params, search)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Properties retrieved successfully", result)
}

// Create handles registering a new property
func (h *PropertyHandler) Create(c *gin.Context) {
	var req request.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	property, err := h.propertyService.CreateProperty(c.Request.Context(), &service.CreatePropertyInput{
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		Notes:   req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Property created successfully", property)
}

// Get handles getting a property with its units
func (h *PropertyHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid property ID")
		return
	}

	property, err := h.propertyService.GetProperty(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Property retrieved successfully", property)
}

// Update handles updating a property
func (h *PropertyHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid property ID")
		return
	}

	var req request.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	property, err := h.propertyService.UpdateProperty(c.Request.Context(), id, &service.UpdatePropertyInput{
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		Notes:   req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Property updated successfully", property)
}

// Delete handles deleting a property
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid property ID")
		return
	}

	if err := h.propertyService.DeleteProperty(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Property deleted successfully", nil)
}

// CreateUnit handles adding a unit to a property
func (h *PropertyHandler) CreateUnit(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid property ID")
		return
	}

	var req request.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	unit, err := h.propertyService.CreateUnit(c.Request.Context(), &service.CreateUnitInput{
		PropertyID:  propertyID,
		UnitNumber:  req.UnitNumber,
		Bedrooms:    req.Bedrooms,
		MonthlyRent: req.MonthlyRent,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Unit created successfully", unit)
}

// ListUnits handles listing the units of a property
func (h *PropertyHandler) ListUnits(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid property ID")
		return
	}

	units, err := h.propertyService.ListUnits(c.Request.Context(), propertyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Units retrieved successfully", units)
}

// DeleteUnit handles deleting a unit
func (h *PropertyHandler) DeleteUnit(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("unit_id"))
	if err != nil {
		response.BadRequest(c, "Invalid unit ID")
		return
	}

	if err := h.propertyService.DeleteUnit(c.Request.Context(), unitID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Unit deleted successfully", nil)
}
