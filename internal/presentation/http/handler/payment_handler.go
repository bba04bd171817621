package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/application/service"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/internal/domain/repository"
	"github.com/kodisha/kodisha-api/internal/presentation/http/dto/request"
	"github.com/kodisha/kodisha-api/internal/presentation/http/dto/response"
	"github.com/kodisha/kodisha-api/pkg/pagination"
)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// List handles listing payments
func (h *PaymentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))
	statusStr := c.Query("status")

	params := &repository.PaymentFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    page,
			PerPage: perPage,
		},
		Search:           c.Query("search"),
		SortBy:           c.Query("sort_by"),
		SortOrder:        c.Query("sort_order"),
		SkipCompanyScope: IsSuperAdmin(c),
	}

	if statusStr != "" {
		statusInt, err := strconv.Atoi(statusStr)
		if err == nil {
			status := enum.PaymentStatus(statusInt)
			params.Status = &status
		}
	}

	if tenantIDStr := c.Query("tenant_id"); tenantIDStr != "" {
		if tenantID, err := uuid.Parse(tenantIDStr); err == nil {
			params.TenantID = &tenantID
		}
	}

	if invoiceIDStr := c.Query("invoice_id"); invoiceIDStr != "" {
		if invoiceID, err := uuid.Parse(invoiceIDStr); err == nil {
			params.InvoiceID = &invoiceID
		}
	}

	if methodStr := c.Query("method"); methodStr != "" {
		if methodInt, err := strconv.Atoi(methodStr); err == nil {
			method := enum.PaymentMethod(methodInt)
			params.Method = &method
		}
	}

	if startDateStr := c.Query("start_date"); startDateStr != "" {
		if startDate, err := time.Parse("2006-01-02", startDateStr); err == nil {
			params.StartDate = &startDate
		}
	}

	if endDateStr := c.Query("end_date"); endDateStr != "" {
		if endDate, err := time.Parse("2006-01-02", endDateStr); err == nil {
			params.EndDate = &endDate
		}
	}

	result, err := h.paymentService.ListPayments(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Payments retrieved successfully", result)
}

// Create handles recording a new pending payment
func (h *PaymentHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), &service.CreatePaymentInput{
		TenantID:        req.TenantID,
		PropertyID:      req.PropertyID,
		UnitID:          req.UnitID,
		LeaseID:         req.LeaseID,
		Amount:          req.Amount,
		Method:          req.Method,
		Type:            req.Type,
		PaymentPeriod:   req.PaymentPeriod,
		ReferenceNumber: req.ReferenceNumber,
		PaymentDate:     req.PaymentDate,
		RecordedBy:      *userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment recorded successfully", payment)
}

// Get handles getting a single payment
func (h *PaymentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment retrieved successfully", payment)
}

// Approve handles approving a pending payment. Approval triggers
// auto-matching against the tenant's open invoices.
func (h *PaymentHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid payment ID")
		return
	}

	result, err := h.paymentService.ApprovePayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment approved successfully", result)
}

// Reject handles rejecting a pending payment
func (h *PaymentHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.RejectPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment rejected successfully", payment)
}

// Link handles manually linking a payment to an invoice
func (h *PaymentHandler) Link(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid payment ID")
		return
	}

	var req request.LinkInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.paymentService.LinkPayment(c.Request.Context(), paymentID, req.InvoiceID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment linked successfully", result)
}

// Delete handles deleting a pending payment
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid payment ID")
		return
	}

	if err := h.paymentService.DeletePayment(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment deleted successfully", nil)
}
