package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/repository"
	infraRepo "github.com/kodisha/kodisha-api/internal/infrastructure/repository"
	"github.com/kodisha/kodisha-api/internal/presentation/http/dto/response"
)

// ExtractCompanyFromHost extracts the company slug from the subdomain
// e.g., "acme.kodisha.co.ke" -> "acme"
func ExtractCompanyFromHost(host string) (string, error) {
	// Remove port if present
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return "", errors.New("invalid subdomain")
	}
	return parts[0], nil
}

// CompanyMiddleware resolves the company from the request subdomain, checks
// the authenticated user belongs to it, and injects the company ID into the
// request context so repositories scope every query to it.
func CompanyMiddleware(companyRepo repository.CompanyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		companySlug, err := ExtractCompanyFromHost(c.Request.Host)
		if err != nil {
			// No subdomain. Fall back to the X-Company-ID header so local
			// clients and the mobile app can still pick a company.
			if headerID := c.GetHeader("X-Company-ID"); headerID != "" {
				companyID, err := uuid.Parse(headerID)
				if err != nil {
					response.BadRequest(c, "Invalid X-Company-ID header")
					c.Abort()
					return
				}
				attachCompany(c, companyRepo, companyID)
				return
			}

			c.Set("company_id", uuid.Nil)
			c.Next()
			return
		}

		company, err := companyRepo.GetBySlug(c.Request.Context(), companySlug)
		if err != nil || company == nil {
			response.NotFound(c, "Company not found")
			c.Abort()
			return
		}

		attachCompany(c, companyRepo, company.ID)
	}
}

// attachCompany verifies membership and stores the company in both the Gin
// context and the request context
func attachCompany(c *gin.Context, companyRepo repository.CompanyRepository, companyID uuid.UUID) {
	userIDVal, exists := c.Get("user_id")
	if exists {
		userID, ok := userIDVal.(uuid.UUID)
		if ok && userID != uuid.Nil && !hasRole(c, "super-admin") {
			isMember, _ := companyRepo.IsMember(c.Request.Context(), companyID, userID)
			if !isMember {
				response.Forbidden(c, "Access denied to this company")
				c.Abort()
				return
			}
		}
	}

	c.Set("company_id", companyID)

	ctx := infraRepo.WithCompany(c.Request.Context(), companyID)
	if hasRole(c, "super-admin") {
		ctx = infraRepo.WithSkipCompanyScope(ctx, true)
	}
	c.Request = c.Request.WithContext(ctx)

	c.Next()
}

// RequireCompany ensures a valid company context exists
func RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, exists := c.Get("company_id")
		if !exists {
			response.BadRequest(c, "Company context required")
			c.Abort()
			return
		}

		id, ok := companyID.(uuid.UUID)
		if !ok || id == uuid.Nil {
			response.BadRequest(c, "Invalid company context")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetCompanyID retrieves the company ID from gin context
func GetCompanyID(c *gin.Context) uuid.UUID {
	companyID, exists := c.Get("company_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := companyID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func hasRole(c *gin.Context, role string) bool {
	rolesVal, exists := c.Get("user_roles")
	if !exists {
		return false
	}
	roles, ok := rolesVal.([]string)
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
