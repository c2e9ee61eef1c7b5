package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dealdesk/internal/actorcontext"
	contractdomain "github.com/smallbiznis/dealdesk/internal/contract/domain"
)

func (s *Server) registerContractRoutes(rg *gin.RouterGroup) {
	contracts := rg.Group("/contracts")
	contracts.GET("", s.ListContracts)
	contracts.POST("", s.CreateContract)
	contracts.GET("/:contract_id", s.GetContract)
	contracts.PATCH("/:contract_id", s.UpdateContract)
	contracts.POST("/:contract_id/transition", s.TransitionContract)
}

func (s *Server) ListContracts(c *gin.Context) {
	var req contractdomain.ListContractRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contractSvc.ListContracts(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateContract(c *gin.Context) {
	var req contractdomain.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	resp, err := s.contractSvc.CreateContract(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.emitAudit(ctx, "contract.created", "contract", resp.ID.String(), map[string]any{
		"quote_id":    req.QuoteID,
		"value_cents": resp.ValueCents,
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetContract(c *gin.Context) {
	resp, err := s.contractSvc.GetContract(c.Request.Context(), c.Param("contract_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateContract(c *gin.Context) {
	var req contractdomain.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ContractID = c.Param("contract_id")

	ctx := c.Request.Context()
	resp, err := s.contractSvc.UpdateContract(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.emitAudit(ctx, "contract.updated", "contract", req.ContractID, nil)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TransitionContract(c *gin.Context) {
	var req contractdomain.TransitionContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	req.ContractID = c.Param("contract_id")
	req.Role = actorcontext.RoleFromContext(ctx)

	resp, err := s.contractSvc.Transition(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.emitAudit(ctx, "contract.transitioned", "contract", req.ContractID, map[string]any{
		"to_status": string(req.ToStatus),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
