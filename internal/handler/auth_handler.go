package handler

import (
	"errors"
	"net/http"

	"upkeep/internal/middleware"
	"upkeep/internal/repository"
	"upkeep/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authSvc    *service.AuthService
	collabRepo *repository.CollaboratorRepository
}

func NewAuthHandler(authSvc *service.AuthService, collabRepo *repository.CollaboratorRepository) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, collabRepo: collabRepo}
}

// Register creates a collaborator account. Admin-gated in the router.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"required,oneof=ADMIN TECHNICIAN OPERATOR"`
		Sector   string `json:"sector"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	collab, access, refresh, err := h.authSvc.Register(req.Name, req.Email, req.Password, req.Role, req.Sector)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"collaborator":  collab,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	collab, access, refresh, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"collaborator":  collab,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	collab, access, refresh, err := h.authSvc.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"collaborator":  collab,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.authSvc.ChangePassword(middleware.GetCollaboratorID(c), req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is wrong"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "change password failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": true})
}

// Me returns the authenticated collaborator's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	collab, err := h.collabRepo.GetByID(middleware.GetCollaboratorID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "collaborator not found"})
		return
	}
	c.JSON(http.StatusOK, collab)
}

// ListCollaborators lists accounts for transfer pickers and admin screens.
func (h *AuthHandler) ListCollaborators(c *gin.Context) {
	limit, offset := pagination(c, 50)
	list, err := h.collabRepo.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"collaborators": list})
}
