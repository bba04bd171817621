package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/application/service"
	"github.com/kodisha/kodisha-api/internal/presentation/http/dto/request"
	"github.com/kodisha/kodisha-api/internal/presentation/http/dto/response"
	"github.com/kodisha/kodisha-api/pkg/pagination"
)

// LeaseHandler handles lease HTTP requests
type LeaseHandler struct {
	leaseService *service.LeaseService
}

// NewLeaseHandler creates a new lease handler
func NewLeaseHandler(leaseService *service.LeaseService) *LeaseHandler {
	return &LeaseHandler{leaseService: leaseService}
}

// List handles listing leases
func (h *LeaseHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	params := &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.leaseService.ListLeases(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Leases retrieved successfully", result)
}

// Create handles signing a tenant onto a unit
func (h *LeaseHandler) Create(c *gin.Context) {
	var req request.CreateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	lease, err := h.leaseService.CreateLease(c.Request.Context(), &service.CreateLeaseInput{
		TenantID:      req.TenantID,
		UnitID:        req.UnitID,
		RentAmount:    req.RentAmount,
		DepositAmount: req.DepositAmount,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Lease created successfully", lease)
}

// Get handles getting a single lease
func (h *LeaseHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid lease ID")
		return
	}

	lease, err := h.leaseService.GetLease(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Lease retrieved successfully", lease)
}

// Terminate handles ending a lease and freeing its unit
func (h *LeaseHandler) Terminate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid lease ID")
		return
	}

	var req request.TerminateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "Invalid request body")
		return
	}

	endDate := time.Now()
	if req.EndDate != nil {
		endDate = *req.EndDate
	}

	lease, err := h.leaseService.TerminateLease(c.Request.Context(), id, endDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Lease terminated successfully", lease)
}

// Delete handles deleting a terminated lease
func (h *LeaseHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid lease ID")
		return
	}

	if err := h.leaseService.DeleteLease(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Lease deleted successfully", nil)
}
