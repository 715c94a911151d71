package handlers

import (
	"net/http"

	"taskpilot/backend/internal/middleware"
	"taskpilot/backend/internal/models"
	"taskpilot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// currentActor resolves the signed-in user's directory record. A user who
// has not been recorded yet acts under their identity's profile.
func currentActor(c *gin.Context, users services.UserService) (models.User, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.User{}, false
	}

	if user, err := users.GetUser(c.Request.Context(), identity.ExternalID); err == nil {
		return *user, true
	}

	name := models.DisplayNameFor(identity.DisplayName, identity.Email)
	avatar := identity.PhotoURL
	if avatar == "" {
		avatar = models.PlaceholderAvatar(name)
	}
	return models.User{
		ID:        identity.ExternalID,
		Name:      name,
		Email:     identity.Email,
		AvatarURL: avatar,
		Initials:  models.Initials(name),
	}, true
}
