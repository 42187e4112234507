package premio

import (
	"net/http"

	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/middleware"
	"eps-campanhas/services/user"

	"github.com/gin-gonic/gin"
)

func (s *Service) createPremio(c *gin.Context) {
	var req CreatePremioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	created, err := s.CreatePremio(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

type listPremiosQuery struct {
	OnlyActive bool `form:"only_active"`
	pagination.Pagination
}

func (s *Service) listPremios(c *gin.Context) {
	var query listPremiosQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(errutil.BadRequest("Parâmetros inválidos", err))
		return
	}

	req := ListPremiosRequest{
		OnlyActive: query.OnlyActive,
		Pagination: query.Pagination,
	}

	// quem nao e admin so ve o catalogo ativo
	if c.GetString(middleware.ContextUserRole) != string(user.RoleAdmin) {
		req.OnlyActive = true
	}

	items, pageInfo, err := s.ListPremios(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"page_info": pageInfo,
	})
}

func (s *Service) getPremio(c *gin.Context) {
	p, err := s.GetPremio(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (s *Service) updatePremio(c *gin.Context) {
	var req UpdatePremioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	updated, err := s.UpdatePremio(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Service) redeemPremio(c *gin.Context) {
	redemption, err := s.Redeem(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, redemption)
}

type listRedemptionsQuery struct {
	UserID   string `form:"user_id"`
	PremioID string `form:"premio_id"`
	Status   string `form:"status"`
	pagination.Pagination
}

func (s *Service) listRedemptions(c *gin.Context) {
	var query listRedemptionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(errutil.BadRequest("Parâmetros inválidos", err))
		return
	}

	req := ListRedemptionsRequest{
		UserID:     query.UserID,
		PremioID:   query.PremioID,
		Status:     RedemptionStatus(query.Status),
		Pagination: query.Pagination,
	}

	// resgates sao pessoais, so admin lista de outros usuarios
	if c.GetString(middleware.ContextUserRole) != string(user.RoleAdmin) {
		req.UserID = c.GetString(middleware.ContextUserID)
	}

	items, pageInfo, err := s.ListRedemptions(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"page_info": pageInfo,
	})
}

func (s *Service) cancelRedemption(c *gin.Context) {
	cancelled, err := s.CancelRedemption(
		c.Request.Context(),
		c.Param("id"),
		c.GetString(middleware.ContextUserID),
		user.Role(c.GetString(middleware.ContextUserRole)),
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, cancelled)
}

func (s *Service) deliverRedemption(c *gin.Context) {
	delivered, err := s.DeliverRedemption(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, delivered)
}
