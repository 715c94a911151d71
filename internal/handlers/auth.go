package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"taskpilot/backend/internal/auth"
	"taskpilot/backend/internal/middleware"
	"taskpilot/backend/internal/models"
	"taskpilot/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type AuthHandler struct {
	users  services.UserService
	tokens *auth.TokenManager
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewAuthHandler(users services.UserService, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Session records the signed-in identity in the directory on first sight
// and returns the caller's profile.
func (h *AuthHandler) Session(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx := c.Request.Context()
	if err := h.users.EnsureUserOnLogin(ctx, identity); err != nil {
		handleServiceError(c, err)
		return
	}

	user, err := h.users.GetUser(ctx, identity.ExternalID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// No email on the identity, so nothing was recorded.
			c.JSON(http.StatusOK, gin.H{"identity": identity, "user": nil})
			return
		}
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"identity": identity, "user": user})
}

// DevToken signs an identity token for local development. It is only
// routed outside production.
func (h *AuthHandler) DevToken(c *gin.Context) {
	var req struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email" binding:"omitempty,email"`
		Picture string `json:"picture"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if req.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate subject"})
			return
		}
		req.ID = id.String()
	}

	token, expiresAt, err := h.tokens.Issue(models.Identity{
		ExternalID:  req.ID,
		DisplayName: strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		PhotoURL:    req.Picture,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	})
}
