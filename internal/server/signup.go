package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dealdesk/internal/actorcontext"
	signupdomain "github.com/smallbiznis/dealdesk/internal/signup/domain"
)

func (s *Server) registerSignupRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", s.SubmitSignup)

	requests := rg.Group("/signup-requests")
	requests.GET("", s.ListPendingSignups)
	requests.POST("/:request_id/approve", s.ApproveSignup)
	requests.POST("/:request_id/reject", s.RejectSignup)
}

// SubmitSignup is the one unauthenticated write: anyone may apply for
// access, nothing is provisioned until an admin approves.
func (s *Server) SubmitSignup(c *gin.Context) {
	var req signupdomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.signupSvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPendingSignups(c *gin.Context) {
	resp, err := s.signupSvc.ListPending(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApproveSignup(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := s.signupSvc.Approve(ctx, signupdomain.DecideRequest{
		RequestID:  c.Param("request_id"),
		ApproverID: actorcontext.ActorIDFromContext(ctx),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RejectSignup(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := s.signupSvc.Reject(ctx, signupdomain.DecideRequest{
		RequestID:  c.Param("request_id"),
		ApproverID: actorcontext.ActorIDFromContext(ctx),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
