package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// generateJWT mints a token carrying the anonymous id.
func (h *Handler) generateJWT(anonID string) (string, error) {
	claims := jwt.MapClaims{
		"anon_id": anonID,
		"exp":     time.Now().Add(time.Hour * 72).Unix(),
		"iss":     "ser-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

// GetAnonID creates a fresh anonymous identity and returns its JWT. No
// registration: a client that loses the token simply becomes someone new.
func (h *Handler) GetAnonID(c *gin.Context) {
	anonUUID, _ := uuid.NewRandom()
	anonID := anonUUID.String()

	token, err := h.generateJWT(anonID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "anon_id": anonID})
}

// Me returns the caller's profile.
func (h *Handler) Me(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"id":                user.ID,
		"username":          user.Username,
		"display_name":      user.DisplayName,
		"avatar_url":        user.AvatarURL,
		"gender":            user.Gender,
		"interests":         user.Interests,
		"profile_completed": user.ProfileCompleted,
		"is_admin":          user.IsAdmin,
	})
}

type profileRequest struct {
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	AvatarURL   string   `json:"avatar_url"`
	Gender      string   `json:"gender"`
	Interests   []string `json:"interests"`
}

// UpdateProfile fills in the caller's display profile. A profile with a
// display name counts as completed.
func (h *Handler) UpdateProfile(c *gin.Context) {
	user := currentUser(c)

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}
	if req.Gender != "" {
		user.Gender = req.Gender
	}
	if req.Interests != nil {
		user.Interests = req.Interests
	}
	user.ProfileCompleted = user.DisplayName != ""

	if err := h.Storage.UpdateUser(user); err != nil {
		h.Log.Error().Err(err).Str("user_id", user.ID).Msg("failed to update profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
