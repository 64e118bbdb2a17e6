package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mont-sinai/chorale/internal/pkg/response"
	"github.com/mont-sinai/chorale/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c *gin.Context) {
	page, limit, offset := parsePage(c)
	items, total, err := h.users.List(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Paged(c, items, response.NewMeta(total, page, int(limit)))
}

func (h *UserHandler) Team(c *gin.Context) {
	items, err := h.users.Team(c.Request.Context(), c.Query("search"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user.Public())
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user.Public())
}

type userUpdateRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"fullName"`
}

func (h *UserHandler) Update(c *gin.Context) {
	var req userUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Requête invalide")
		return
	}
	user, err := h.users.Update(c.Request.Context(), c.Param("id"), service.UserUpdateInput{
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user.Public())
}

type roleUpdateRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req roleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Requête invalide")
		return
	}
	user, err := h.users.UpdateRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user.Public())
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Utilisateur supprimé."})
}
