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

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	paymentService *service.PaymentService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService, paymentService *service.PaymentService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		paymentService: paymentService,
	}
}

// List handles listing invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))
	statusStr := c.Query("status")

	params := &repository.InvoiceFilterParams{
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
			status := enum.InvoiceStatus(statusInt)
			params.Status = &status
		}
	}

	if tenantIDStr := c.Query("tenant_id"); tenantIDStr != "" {
		if tenantID, err := uuid.Parse(tenantIDStr); err == nil {
			params.TenantID = &tenantID
		}
	}

	if propertyIDStr := c.Query("property_id"); propertyIDStr != "" {
		if propertyID, err := uuid.Parse(propertyIDStr); err == nil {
			params.PropertyID = &propertyID
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

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Invoices retrieved successfully", result)
}

// Create handles creating a draft invoice
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	items := make([]service.LineItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.LineItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Kind:        item.Kind,
			UtilityType: item.UtilityType,
		}
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), &service.CreateInvoiceInput{
		IssuedBy:   *userID,
		TenantID:   req.TenantID,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		IssueDate:  req.IssueDate,
		DueDate:    req.DueDate,
		Discount:   req.Discount,
		Items:      items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invoice created successfully", invoice)
}

// Get handles getting a single invoice with its line items
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", invoice)
}

// Send handles transitioning a draft invoice to sent
func (h *InvoiceHandler) Send(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.SendInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice sent successfully", invoice)
}

// MarkPaid handles settling an invoice manually
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req request.MarkInvoicePaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	invoice, err := h.invoiceService.MarkInvoicePaid(c.Request.Context(), &service.MarkInvoicePaidInput{
		InvoiceID: id,
		Method:    req.Method,
		Reference: req.Reference,
		PaidDate:  req.PaidDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice marked as paid", invoice)
}

// Cancel handles voiding a draft or sent invoice
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice canceled successfully", invoice)
}

// LinkPayment handles linking an existing payment to this invoice
func (h *InvoiceHandler) LinkPayment(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req request.LinkPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.paymentService.LinkPayment(c.Request.Context(), req.PaymentID, invoiceID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment linked successfully", result)
}

// Delete handles deleting an invoice
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice deleted successfully", nil)
}
