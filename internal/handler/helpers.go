package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mont-sinai/chorale/internal/middleware"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
	"github.com/mont-sinai/chorale/internal/pkg/response"
	"github.com/mont-sinai/chorale/internal/service"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 50
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func getUserRole(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserRoleKey)
	role, _ := value.(string)
	return role
}

// parsePage reads ?page and ?limit (1-based page, limit clamped to
// maxPageLimit) and returns page, limit and the derived offset.
func parsePage(c *gin.Context) (int, uint, uint) {
	page := 1
	if value := c.Query("page"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			page = parsed
		}
	}
	limit := defaultPageLimit
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, uint(limit), uint((page - 1) * limit)
}

func handleError(c *gin.Context, err error) {
	if err != nil {
		requestID, _ := c.Get(middleware.ContextRequestIDKey)
		logutil.GetLogger(c.Request.Context()).Error("request failed",
			zap.Any("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("user_id", getUserID(c)),
			zap.Error(err),
		)
	}
	switch {
	case err == nil:
		return
	case errors.Is(err, service.ErrLastAdmin):
		response.Error(c, http.StatusBadRequest, "last_admin", "Impossible de rétrograder le dernier administrateur")
	case errors.Is(err, service.ErrHasChildren):
		response.Error(c, http.StatusBadRequest, "has_children", "Suppression impossible: des éléments y sont encore rattachés")
	case errors.Is(err, appErr.ErrInvalidCode):
		response.Error(c, http.StatusBadRequest, "invalid_code", "Code invalide ou expiré")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, "too_many_requests", "Veuillez patienter avant de demander un nouveau code")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized", "Identifiants invalides")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, "forbidden", "Accès refusé")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "Ressource introuvable")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "conflict", "Cette ressource existe déjà")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "Requête invalide")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "Erreur interne du serveur")
	}
}
