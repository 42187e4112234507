package campaign

import (
	"net/http"

	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Service) createCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	created, err := s.CreateCampaign(c.Request.Context(), req, c.GetString(middleware.ContextUserID))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

type listCampaignsQuery struct {
	Status    string `form:"status"`
	Available bool   `form:"available"`
	pagination.Pagination
}

func (s *Service) listCampaigns(c *gin.Context) {
	var query listCampaignsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(errutil.BadRequest("Parâmetros inválidos", err))
		return
	}

	req := ListCampaignsRequest{
		Status:        query.Status,
		OnlyAvailable: query.Available,
		Pagination:    query.Pagination,
	}

	// VENDEDOR so enxerga campanhas ativas e elegiveis pra sua otica
	if c.GetString(middleware.ContextUserRole) == "VENDEDOR" {
		req.OnlyAvailable = true
		req.SellerID = c.GetString(middleware.ContextUserID)
	}

	items, pageInfo, err := s.ListCampaigns(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"page_info": pageInfo,
	})
}

func (s *Service) getCampaign(c *gin.Context) {
	found, err := s.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, found)
}

func (s *Service) updateCampaign(c *gin.Context) {
	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	updated, err := s.UpdateCampaign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Service) activateCampaign(c *gin.Context) {
	activated, err := s.ActivateCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, activated)
}

type cloneCampaignRequest struct {
	Title string `json:"title" binding:"required"`
}

func (s *Service) cloneCampaign(c *gin.Context) {
	var req cloneCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	cloned, err := s.CloneCampaign(c.Request.Context(), c.Param("id"), req.Title, c.GetString(middleware.ContextUserID))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, cloned)
}

func (s *Service) addRequirement(c *gin.Context) {
	var req RequirementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	created, err := s.AddRequirement(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}
