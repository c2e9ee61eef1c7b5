package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/dealdesk/internal/customer/domain"
)

func (s *Server) registerCustomerRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	customers.GET("", s.ListCustomers)
	customers.POST("", s.CreateCustomer)
	customers.GET("/:customer_id", s.GetCustomer)
}

func (s *Server) ListCustomers(c *gin.Context) {
	req := customerdomain.ListCustomerRequest{
		PageToken: c.Query("page_token"),
		Name:      c.Query("name"),
		Email:     c.Query("email"),
		Company:   c.Query("company"),
	}
	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			AbortWithError(c, newValidationError("page_size", "invalid_page_size", "page_size must be an integer"))
			return
		}
		req.PageSize = int32(size)
	}

	resp, err := s.customerSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req customerdomain.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	resp, err := s.customerSvc.Create(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.emitAudit(ctx, "customer.created", "customer", resp.ID.String(), nil)

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetCustomer(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: c.Param("customer_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
