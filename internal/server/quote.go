package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dealdesk/internal/actorcontext"
	quotedomain "github.com/smallbiznis/dealdesk/internal/quote/domain"
)

func (s *Server) registerQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", s.ListQuotes)
	quotes.POST("", s.CreateQuote)
	quotes.GET("/:quote_id", s.GetQuote)
	quotes.GET("/:quote_id/totals", s.GetQuoteTotals)
	quotes.PATCH("/:quote_id", s.UpdateQuotePercentages)
	quotes.POST("/:quote_id/items", s.AddQuoteItem)
	quotes.PATCH("/:quote_id/items/:item_id", s.UpdateQuoteItem)
	quotes.DELETE("/:quote_id/items/:item_id", s.RemoveQuoteItem)
	quotes.POST("/:quote_id/transition", s.TransitionQuote)
}

func (s *Server) ListQuotes(c *gin.Context) {
	var req quotedomain.ListQuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quoteSvc.ListQuotes(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateQuote(c *gin.Context) {
	var req quotedomain.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	resp, err := s.quoteSvc.CreateQuote(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quoteID := resp.ID.String()
	s.emitAudit(ctx, "quote.created", "quote", quoteID, map[string]any{
		"total_cents": resp.TotalCents,
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetQuote(c *gin.Context) {
	resp, err := s.quoteSvc.GetQuote(c.Request.Context(), quotedomain.GetQuoteRequest{
		QuoteID: c.Param("quote_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetQuoteTotals(c *gin.Context) {
	resp, err := s.quoteSvc.ComputeTotals(c.Request.Context(), quotedomain.GetQuoteRequest{
		QuoteID: c.Param("quote_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateQuotePercentages(c *gin.Context) {
	var req quotedomain.UpdatePercentagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.QuoteID = c.Param("quote_id")

	ctx := c.Request.Context()
	resp, err := s.quoteSvc.UpdatePercentages(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.emitAudit(ctx, "quote.updated", "quote", req.QuoteID, map[string]any{
		"total_cents": resp.TotalCents,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddQuoteItem(c *gin.Context) {
	var item quotedomain.LineItemInput
	if err := c.ShouldBindJSON(&item); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	resp, err := s.quoteSvc.AddItem(ctx, quotedomain.AddItemRequest{
		QuoteID: c.Param("quote_id"),
		Item:    item,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.emitAudit(ctx, "quote.item_added", "quote", c.Param("quote_id"), map[string]any{
		"total_cents": resp.TotalCents,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateQuoteItem(c *gin.Context) {
	var item quotedomain.LineItemInput
	if err := c.ShouldBindJSON(&item); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	resp, err := s.quoteSvc.UpdateItem(ctx, quotedomain.UpdateItemRequest{
		QuoteID: c.Param("quote_id"),
		ItemID:  c.Param("item_id"),
		Item:    item,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.emitAudit(ctx, "quote.item_updated", "quote", c.Param("quote_id"), map[string]any{
		"item_id":     c.Param("item_id"),
		"total_cents": resp.TotalCents,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveQuoteItem(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := s.quoteSvc.RemoveItem(ctx, quotedomain.RemoveItemRequest{
		QuoteID: c.Param("quote_id"),
		ItemID:  c.Param("item_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.emitAudit(ctx, "quote.item_removed", "quote", c.Param("quote_id"), map[string]any{
		"item_id":     c.Param("item_id"),
		"total_cents": resp.TotalCents,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TransitionQuote(c *gin.Context) {
	var req quotedomain.TransitionQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	req.QuoteID = c.Param("quote_id")
	req.Role = actorcontext.RoleFromContext(ctx)

	resp, err := s.quoteSvc.Transition(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.emitAudit(ctx, "quote.transitioned", "quote", req.QuoteID, map[string]any{
		"to_status":   string(req.ToStatus),
		"total_cents": resp.TotalCents,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
