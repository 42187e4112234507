package user

import (
	"net/http"
	"strconv"

	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type listUsersQuery struct {
	Role      string `form:"role"`
	ManagerID string `form:"manager_id"`
	OpticCNPJ string `form:"optic_cnpj"`
	pagination.Pagination
}

func (s *Service) createUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	created, err := s.CreateUser(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Service) getUser(c *gin.Context) {
	found, err := s.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, found)
}

func (s *Service) listUsers(c *gin.Context) {
	var query listUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(errutil.BadRequest("Parâmetros inválidos", err))
		return
	}

	req := ListUsersRequest{
		Role:       Role(query.Role),
		ManagerID:  query.ManagerID,
		OpticCNPJ:  query.OpticCNPJ,
		Pagination: query.Pagination,
	}

	// GERENTE enxerga apenas o proprio time
	if c.GetString(middleware.ContextUserRole) == string(RoleGerente) {
		req.ManagerID = c.GetString(middleware.ContextUserID)
	}

	users, pageInfo, err := s.ListUsers(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":     users,
		"page_info": pageInfo,
	})
}

func (s *Service) updateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	updated, err := s.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Service) ranking(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := s.Ranking(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ranking": entries})
}
