package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/application/service"
	"github.com/kodisha/kodisha-api/internal/presentation/http/dto/request"
	"github.com/kodisha/kodisha-api/internal/presentation/http/dto/response"
	"github.com/kodisha/kodisha-api/internal/presentation/http/middleware"
	"github.com/kodisha/kodisha-api/pkg/pagination"
)

// CompanyHandler handles company (SaaS tenancy) HTTP requests
type CompanyHandler struct {
	companyService *service.CompanyService
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companyService *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// List handles listing the companies the current user belongs to
func (h *CompanyHandler) List(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	params := &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.companyService.GetUserCompanies(c.Request.Context(), *userID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Companies retrieved successfully", result)
}

// Create handles creating a new company with the caller as owner
func (h *CompanyHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	company, err := h.companyService.CreateCompany(c.Request.Context(), &service.CreateCompanyInput{
		Name:    req.Name,
		OwnerID: *userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Company created successfully", company)
}

// GetCurrent handles getting the company resolved from the request context
func (h *CompanyHandler) GetCurrent(c *gin.Context) {
	companyID := middleware.GetCompanyID(c)
	if companyID == uuid.Nil {
		response.BadRequest(c, "Company context required")
		return
	}

	company, err := h.companyService.GetCompany(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Company retrieved successfully", company)
}

// UpdateSettings handles updating the current company's billing settings
func (h *CompanyHandler) UpdateSettings(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	companyID := middleware.GetCompanyID(c)
	if companyID == uuid.Nil {
		response.BadRequest(c, "Company context required")
		return
	}

	var req request.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	company, err := h.companyService.UpdateSettings(c.Request.Context(), &service.UpdateSettingsInput{
		CompanyID: companyID,
		UserID:    *userID,
		Settings:  req.Settings,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Company settings updated successfully", company)
}

// ListMembers handles listing the current company's members
func (h *CompanyHandler) ListMembers(c *gin.Context) {
	companyID := middleware.GetCompanyID(c)
	if companyID == uuid.Nil {
		response.BadRequest(c, "Company context required")
		return
	}

	members, err := h.companyService.GetMembers(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Members retrieved successfully", members)
}

// AddMember handles adding an existing user to the current company
func (h *CompanyHandler) AddMember(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	companyID := middleware.GetCompanyID(c)
	if companyID == uuid.Nil {
		response.BadRequest(c, "Company context required")
		return
	}

	var req request.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	membership, err := h.companyService.AddMember(c.Request.Context(), &service.AddMemberInput{
		CompanyID: companyID,
		ActorID:   *userID,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Member added successfully", membership)
}

// RemoveMember handles removing a user from the current company
func (h *CompanyHandler) RemoveMember(c *gin.Context) {
	actorID := GetUserID(c)
	if actorID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	companyID := middleware.GetCompanyID(c)
	if companyID == uuid.Nil {
		response.BadRequest(c, "Company context required")
		return
	}

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.companyService.RemoveMember(c.Request.Context(), companyID, *actorID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Member removed successfully", nil)
}
