package submission

import (
	"net/http"

	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/middleware"
	"eps-campanhas/services/user"

	"github.com/gin-gonic/gin"
)

func (s *Service) createSubmission(c *gin.Context) {
	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	created, err := s.CreateSubmission(c.Request.Context(), req, c.GetString(middleware.ContextUserID))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

type listSubmissionsQuery struct {
	UserID     string `form:"user_id"`
	CampaignID string `form:"campaign_id"`
	KitID      string `form:"kit_id"`
	Status     string `form:"status"`
	pagination.Pagination
}

func (s *Service) listSubmissions(c *gin.Context) {
	var query listSubmissionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(errutil.BadRequest("Parâmetros inválidos", err))
		return
	}

	req := ListSubmissionsRequest{
		UserID:     query.UserID,
		CampaignID: query.CampaignID,
		KitID:      query.KitID,
		Status:     SubmissionStatus(query.Status),
		Pagination: query.Pagination,
	}

	// VENDEDOR enxerga so as proprias vendas, GERENTE as do time
	switch c.GetString(middleware.ContextUserRole) {
	case string(user.RoleVendedor):
		req.UserID = c.GetString(middleware.ContextUserID)
		req.TeamManagerID = ""
	case string(user.RoleGerente):
		req.TeamManagerID = c.GetString(middleware.ContextUserID)
	}

	items, pageInfo, err := s.ListSubmissions(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"page_info": pageInfo,
	})
}

func (s *Service) getSubmission(c *gin.Context) {
	sub, err := s.GetSubmissionForActor(
		c.Request.Context(),
		c.Param("id"),
		c.GetString(middleware.ContextUserID),
		user.Role(c.GetString(middleware.ContextUserRole)),
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (s *Service) validateSubmission(c *gin.Context) {
	validated, err := s.ValidateSubmission(
		c.Request.Context(),
		c.Param("id"),
		c.GetString(middleware.ContextUserID),
		user.Role(c.GetString(middleware.ContextUserRole)),
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, validated)
}

type rejectSubmissionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (s *Service) rejectSubmission(c *gin.Context) {
	var req rejectSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	rejected, err := s.RejectSubmission(
		c.Request.Context(),
		c.Param("id"),
		c.GetString(middleware.ContextUserID),
		user.Role(c.GetString(middleware.ContextUserRole)),
		req.Reason,
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, rejected)
}

func (s *Service) uploadReceipt(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.Error(errutil.BadRequest("Arquivo do comprovante é obrigatório", err))
		return
	}
	defer file.Close()

	url, err := s.UploadReceipt(
		c.Request.Context(),
		c.PostForm("submission_id"),
		header.Filename,
		file,
		header.Size,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"receipt_url": url})
}

type listKitsQuery struct {
	UserID     string `form:"user_id"`
	CampaignID string `form:"campaign_id"`
}

func (s *Service) listKits(c *gin.Context) {
	var query listKitsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(errutil.BadRequest("Parâmetros inválidos", err))
		return
	}

	// so admin consulta o kit de outro usuario
	userID := c.GetString(middleware.ContextUserID)
	if query.UserID != "" && c.GetString(middleware.ContextUserRole) == string(user.RoleAdmin) {
		userID = query.UserID
	}

	kits, err := s.ListKits(c.Request.Context(), userID, query.CampaignID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": kits})
}
