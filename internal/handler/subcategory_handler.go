package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mont-sinai/chorale/internal/pkg/response"
	"github.com/mont-sinai/chorale/internal/service"
)

type SubCategoryHandler struct {
	catalogues *service.CatalogueService
}

func NewSubCategoryHandler(catalogues *service.CatalogueService) *SubCategoryHandler {
	return &SubCategoryHandler{catalogues: catalogues}
}

type subCategoryCreateRequest struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
}

func (h *SubCategoryHandler) Create(c *gin.Context) {
	var req subCategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Requête invalide")
		return
	}
	sub, err := h.catalogues.CreateSubCategory(c.Request.Context(), service.SubCategoryCreateInput{
		CategoryID: req.CategoryID,
		Name:       req.Name,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.SuccessStatus(c, http.StatusCreated, sub)
}

func (h *SubCategoryHandler) List(c *gin.Context) {
	page, limit, offset := parsePage(c)
	items, total, err := h.catalogues.ListSubCategories(c.Request.Context(), c.Query("search"), c.Query("categoryId"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Paged(c, items, response.NewMeta(total, page, int(limit)))
}

func (h *SubCategoryHandler) Get(c *gin.Context) {
	sub, err := h.catalogues.GetSubCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sub)
}

type subCategoryUpdateRequest struct {
	Name       *string `json:"name"`
	CategoryID *string `json:"categoryId"`
}

func (h *SubCategoryHandler) Update(c *gin.Context) {
	var req subCategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Requête invalide")
		return
	}
	sub, err := h.catalogues.UpdateSubCategory(c.Request.Context(), c.Param("id"), service.SubCategoryUpdateInput{
		Name:       req.Name,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sub)
}

func (h *SubCategoryHandler) Delete(c *gin.Context) {
	if err := h.catalogues.DeleteSubCategory(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Sous-catégorie supprimée."})
}
