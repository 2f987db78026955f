// Package handler exposes the HTTP API: anonymous auth, the pairing
// endpoints the client polls, reconnect requests, met-user history and
// reports.
package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ser/app/internal/localization"
	"ser/app/internal/models"
	"ser/app/internal/moderation"
	"ser/app/internal/pairing"
	"ser/app/internal/storage"
	"ser/app/internal/telemetry"
)

// Handler carries the collaborators every endpoint needs.
type Handler struct {
	Storage    storage.Storage
	Matcher    *pairing.Matcher
	Moderation *moderation.Service
	Localizer  *localization.Localizer
	Events     telemetry.Emitter
	JWTSecret  []byte
	Log        zerolog.Logger
}

func NewHandler(
	s storage.Storage,
	matcher *pairing.Matcher,
	mod *moderation.Service,
	loc *localization.Localizer,
	events telemetry.Emitter,
	jwtSecret []byte,
	log zerolog.Logger,
) *Handler {
	if events == nil {
		events = telemetry.Nop{}
	}
	return &Handler{
		Storage:    s,
		Matcher:    matcher,
		Moderation: mod,
		Localizer:  loc,
		Events:     events,
		JWTSecret:  jwtSecret,
		Log:        log.With().Str("component", "api").Logger(),
	}
}

// RegisterRoutes mounts all API routes on the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/auth/anonid", h.GetAnonID)

	authed := r.Group("/", h.AuthRequired())
	authed.GET("/api/auth/me", h.Me)
	authed.PUT("/api/auth/profile", h.UpdateProfile)

	chat := authed.Group("/api/chat")
	chat.POST("/start-session", h.StartSession)
	chat.GET("/session-status", h.SessionStatus)
	chat.POST("/end-session", h.EndSession)
	chat.POST("/request-reconnect", h.RequestReconnect)
	chat.POST("/respond-reconnect", h.RespondReconnect)
	chat.GET("/get-reconnect-requests", h.GetReconnectRequests)
	chat.GET("/met-users", h.MetUsers)
	chat.POST("/start-direct-chat", h.StartDirectChat)
	chat.POST("/report", h.Report)
	chat.GET("/stats", h.Stats)
}

// fail answers with the machine-readable error code plus a localized message.
func (h *Handler) fail(c *gin.Context, status int, code string) {
	c.JSON(status, gin.H{
		"error":   code,
		"message": h.Localizer.GetString(langOf(c), "error."+code),
	})
}

// langOf picks the response language from Accept-Language. Arabic is the
// default.
func langOf(c *gin.Context) string {
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return "ar"
	}
	lang := strings.ToLower(strings.TrimSpace(strings.SplitN(header, ",", 2)[0]))
	if idx := strings.Index(lang, "-"); idx > 0 {
		lang = lang[:idx]
	}
	if lang == "" {
		return "ar"
	}
	return lang
}

// currentUser returns the user row the auth middleware resolved.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
