package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	templatedomain "github.com/smallbiznis/dealdesk/internal/contracttemplate/domain"
)

func (s *Server) registerTemplateRoutes(rg *gin.RouterGroup) {
	templates := rg.Group("/contract-templates")
	templates.GET("", s.ListContractTemplates)
	templates.POST("", s.CreateContractTemplate)
	templates.GET("/:template_id", s.GetContractTemplate)
	templates.PATCH("/:template_id", s.UpdateContractTemplate)
	templates.DELETE("/:template_id", s.DeleteContractTemplate)
}

func (s *Server) ListContractTemplates(c *gin.Context) {
	var req templatedomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.templateSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateContractTemplate(c *gin.Context) {
	var req templatedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.templateSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetContractTemplate(c *gin.Context) {
	resp, err := s.templateSvc.Get(c.Request.Context(), c.Param("template_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateContractTemplate(c *gin.Context) {
	var req templatedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.TemplateID = c.Param("template_id")

	resp, err := s.templateSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteContractTemplate(c *gin.Context) {
	if err := s.templateSvc.Delete(c.Request.Context(), c.Param("template_id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
