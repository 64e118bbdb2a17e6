package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mont-sinai/chorale/internal/filestore"
	"github.com/mont-sinai/chorale/internal/pkg/response"
	"github.com/mont-sinai/chorale/internal/repo"
	"github.com/mont-sinai/chorale/internal/service"
	"github.com/mont-sinai/chorale/internal/validation"
)

type PlancheHandler struct {
	planches *service.PlancheService
	store    filestore.Store
}

func NewPlancheHandler(planches *service.PlancheService, store filestore.Store) *PlancheHandler {
	return &PlancheHandler{planches: planches, store: store}
}

func (h *PlancheHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Formulaire multipart requis")
		return
	}
	title := c.PostForm("title")
	subCategoryID := c.PostForm("subCategoryId")
	if len(form.File[validation.FieldPlanche]) == 0 {
		response.Error(c, http.StatusBadRequest, "invalid", "Au moins un fichier planche est requis")
		return
	}
	files, audios, ok := h.storeUploads(c, form)
	if !ok {
		return
	}
	planche, err := h.planches.Create(c.Request.Context(), getUserID(c), service.PlancheCreateInput{
		Title:         title,
		SubCategoryID: subCategoryID,
		Files:         files,
		AudioFiles:    audios,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.SuccessStatus(c, http.StatusCreated, planche)
}

func (h *PlancheHandler) List(c *gin.Context) {
	page, limit, offset := parsePage(c)
	filter := repo.PlancheFilter{
		Search:        c.Query("search"),
		CategoryID:    c.Query("categoryId"),
		SubCategoryID: c.Query("subCategoryId"),
	}
	items, total, err := h.planches.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Paged(c, items, response.NewMeta(total, page, int(limit)))
}

func (h *PlancheHandler) Get(c *gin.Context) {
	planche, err := h.planches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, planche)
}

// Update appends freshly uploaded pages and audio files to the existing
// planche. It never removes previously stored files.
func (h *PlancheHandler) Update(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Formulaire multipart requis")
		return
	}
	files, audios, ok := h.storeUploads(c, form)
	if !ok {
		return
	}
	planche, err := h.planches.AppendFiles(c.Request.Context(), c.Param("id"), files, audios)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, planche)
}

func (h *PlancheHandler) Delete(c *gin.Context) {
	if err := h.planches.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Planche supprimée."})
}

// storeUploads validates every file field of the form and persists the
// accepted files, returning their public URLs. On failure it writes the
// error response itself and reports ok=false.
func (h *PlancheHandler) storeUploads(c *gin.Context, form *multipart.Form) ([]string, []string, bool) {
	for field, headers := range form.File {
		if err := validation.CheckUpload(field, headers); err != nil {
			response.Error(c, http.StatusBadRequest, "invalid_upload", err.Error())
			return nil, nil, false
		}
	}
	files, err := h.saveField(c, validation.FieldPlanche, form.File[validation.FieldPlanche])
	if err != nil {
		handleError(c, err)
		return nil, nil, false
	}
	audios, err := h.saveField(c, validation.FieldAudios, form.File[validation.FieldAudios])
	if err != nil {
		handleError(c, err)
		return nil, nil, false
	}
	return files, audios, true
}

func (h *PlancheHandler) saveField(c *gin.Context, field string, headers []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(headers))
	for _, header := range headers {
		opened, err := header.Open()
		if err != nil {
			return nil, err
		}
		key := validation.BuildFileKey(field, header.Filename)
		err = h.store.Save(c.Request.Context(), key, opened, header.Size)
		_ = opened.Close()
		if err != nil {
			return nil, err
		}
		urls = append(urls, h.store.URL(key, requestBaseURL(c)))
	}
	return urls, nil
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
