package rule

import (
	"net/http"
	"strconv"

	"eps-campanhas/pkg/errutil"

	"github.com/gin-gonic/gin"
)

func (s *Service) createRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	created, err := s.CreateRule(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Service) listRules(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	req := ListRulesRequest{
		Cursor:          c.Query("cursor"),
		Limit:           limit,
		IncludeInactive: c.Query("include_inactive") == "true",
		Triggers:        c.QueryArray("trigger"),
	}

	rules, page, err := s.ListRules(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     rules,
		"page_info": page,
	})
}

func (s *Service) getRule(c *gin.Context) {
	found, err := s.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, found)
}

func (s *Service) updateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	updated, err := s.UpdateRule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Service) deleteRule(c *gin.Context) {
	if err := s.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type evaluateExpressionRequest struct {
	Expression string         `json:"expression" binding:"required"`
	Attributes map[string]any `json:"attributes"`
}

func (s *Service) evaluateExpression(c *gin.Context) {
	var req evaluateExpressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	matched, err := s.EvaluateExpression(c.Request.Context(), req.Expression, req.Attributes)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matched": matched})
}
