package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mont-sinai/chorale/internal/model"
	"github.com/mont-sinai/chorale/internal/pkg/response"
	"github.com/mont-sinai/chorale/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Requête invalide")
		return
	}
	if err := h.auth.Signup(c.Request.Context(), req.Email, req.Password, req.FullName); err != nil {
		handleError(c, err)
		return
	}
	response.SuccessStatus(c, http.StatusCreated, gin.H{
		"message": "Inscription réussie. Un code de vérification a été envoyé à votre adresse email.",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Requête invalide")
		return
	}
	if err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"message": "Email vérifié avec succès. Votre compte est en attente de validation par un responsable.",
	})
}

type resendOTPRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req resendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Requête invalide")
		return
	}
	if err := h.auth.ResendOTP(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"message": "Un nouveau code de vérification a été envoyé à votre adresse email.",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "Requête invalide")
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	// Correct credentials on a not-yet-active account: report the
	// status instead of issuing tokens.
	if result.Pending {
		response.Success(c, gin.H{
			"status":  result.User.Status,
			"message": "Votre compte n'est pas encore actif.",
		})
		return
	}
	response.Success(c, gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         result.User.Public(),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnauthorized, "unauthorized", "Token invalide")
		return
	}
	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

func (h *AuthHandler) Validate(c *gin.Context) {
	user, err := h.auth.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"message": "Compte validé avec succès.",
		"user":    user.Public(),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	targetID := c.Param("id")
	if targetID != getUserID(c) && getUserRole(c) != model.RoleAdmin {
		response.Error(c, http.StatusForbidden, "forbidden", "Accès refusé")
		return
	}
	if err := h.auth.Logout(c.Request.Context(), targetID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Déconnexion réussie."})
}
