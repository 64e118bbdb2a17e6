package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mont-sinai/chorale/internal/pkg/response"
	"github.com/mont-sinai/chorale/internal/service"
)

type CategoryHandler struct {
	catalogues *service.CatalogueService
}

func NewCategoryHandler(catalogues *service.CatalogueService) *CategoryHandler {
	return &CategoryHandler{catalogues: catalogues}
}

func (h *CategoryHandler) Catalogues(c *gin.Context) {
	items, err := h.catalogues.Catalogues(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

type categoryCreateRequest struct {
	CatalogueID string `json:"catalogueId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Requête invalide")
		return
	}
	category, err := h.catalogues.CreateCategory(c.Request.Context(), service.CategoryCreateInput{
		CatalogueID: req.CatalogueID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.SuccessStatus(c, http.StatusCreated, category)
}

func (h *CategoryHandler) List(c *gin.Context) {
	page, limit, offset := parsePage(c)
	items, total, err := h.catalogues.ListCategories(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Paged(c, items, response.NewMeta(total, page, int(limit)))
}

func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.catalogues.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, category)
}

type categoryUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *CategoryHandler) Update(c *gin.Context) {
	var req categoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Requête invalide")
		return
	}
	category, err := h.catalogues.UpdateCategory(c.Request.Context(), c.Param("id"), service.CategoryUpdateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.catalogues.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Catégorie supprimée."})
}
