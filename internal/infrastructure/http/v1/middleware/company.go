package middleware

import (
	"github.com/gin-gonic/gin"

	"belgeno/internal/core/apperror"
	"belgeno/internal/core/id"
	"belgeno/internal/core/tenant"
)

// CompanyHeader is the HTTP header naming the company a request acts for.
const CompanyHeader = "X-Company-ID"

// CompanyScope resolves the company from the header and injects it into the
// request context. It must run before any database access.
func CompanyScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(CompanyHeader)
		if raw == "" {
			_ = c.Error(
				apperror.NewValidation("company is required").
					WithDetail("header", CompanyHeader),
			)
			c.Abort()
			return
		}

		companyID, err := id.ParseCompanyID(raw)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid company id").
					WithDetail("header", CompanyHeader).
					WithDetail("value", raw),
			)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(tenant.WithCompanyID(c.Request.Context(), companyID))
		c.Set("company_id", companyID)

		c.Next()
	}
}
