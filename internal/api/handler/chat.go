package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ser/app/internal/models"
	"ser/app/internal/storage"
	"ser/app/internal/telemetry"
)

// StartSession puts the caller into the search queue. When another user is
// already waiting the match happens inline and the partner comes back in the
// same response; otherwise the client polls session-status.
func (h *Handler) StartSession(c *gin.Context) {
	user := currentUser(c)

	// Restarting search while already paired ends the old session first.
	state, err := h.Storage.GetSessionState(user.ID)
	if err != nil {
		h.internalError(c, err, "failed to read session state")
		return
	}
	if state != nil && state.Status == "connected" {
		if err := h.closeSession(user.ID, state); err != nil {
			h.internalError(c, err, "failed to close previous session")
			return
		}
	}

	now := time.Now().UTC()
	if err := h.Storage.SetSessionState(user.ID, storage.SessionState{
		Status:    "waiting",
		StartedAt: now,
	}); err != nil {
		h.internalError(c, err, "failed to set session state")
		return
	}
	if err := h.Storage.AddUserToSearchQueue(user.ID); err != nil {
		h.internalError(c, err, "failed to join search queue")
		return
	}

	h.Events.Emit(telemetry.Event{
		Type:          telemetry.EventSessionStart,
		ParticipantID: user.ID,
		At:            now,
	})

	room, err := h.Matcher.TryMatch(user.ID)
	if err != nil {
		h.Log.Error().Err(err).Str("user_id", user.ID).Msg("inline match attempt failed")
	}
	if room != nil {
		partner, err := h.Storage.GetUserByID(room.OtherUser(user.ID))
		if err != nil {
			h.internalError(c, err, "failed to load partner")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "connected", "partner": partner.AsPartner()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "waiting"})
}

// SessionStatus is the 2-second poll target. It reports exactly what Redis
// says; a missing state answers "none" so the client can expire its local
// session.
func (h *Handler) SessionStatus(c *gin.Context) {
	user := currentUser(c)

	state, err := h.Storage.GetSessionState(user.ID)
	if err != nil {
		h.internalError(c, err, "failed to read session state")
		return
	}
	if state == nil {
		c.JSON(http.StatusOK, gin.H{"status": "none"})
		return
	}
	if state.Status != "connected" {
		c.JSON(http.StatusOK, gin.H{"status": state.Status})
		return
	}

	partner, err := h.Storage.GetUserByID(state.PartnerID)
	if err != nil {
		h.internalError(c, err, "failed to load partner")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected", "partner": partner.AsPartner()})
}

// EndSession tears down whatever the caller has: a waiting slot leaves the
// queue, a connected session closes the room for both sides and records the
// encounter in both met-user histories.
func (h *Handler) EndSession(c *gin.Context) {
	user := currentUser(c)

	state, err := h.Storage.GetSessionState(user.ID)
	if err != nil {
		h.internalError(c, err, "failed to read session state")
		return
	}
	if state == nil {
		c.JSON(http.StatusOK, gin.H{"status": "none"})
		return
	}

	if state.Status == "waiting" {
		_ = h.Storage.RemoveUserFromSearchQueue(user.ID)
		if err := h.Storage.ClearSessionState(user.ID); err != nil {
			h.internalError(c, err, "failed to clear session state")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "none"})
		return
	}

	if err := h.closeSession(user.ID, state); err != nil {
		h.internalError(c, err, "failed to close session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "none"})
}

// closeSession finishes a connected session: closes the room, records the
// encounter for both participants, adjusts reputation and clears both live
// states.
func (h *Handler) closeSession(userID string, state *storage.SessionState) error {
	now := time.Now().UTC()
	duration := now.Sub(state.StartedAt)
	seconds := int(duration.Seconds())

	if state.RoomID != "" {
		if err := h.Storage.CloseRoom(state.RoomID, now); err != nil {
			return err
		}
	}

	user, err := h.Storage.GetUserByID(userID)
	if err != nil {
		return err
	}
	partner, err := h.Storage.GetUserByID(state.PartnerID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if partner != nil {
		if err := h.Storage.UpsertMetUser(user.ID, partner, now, seconds); err != nil {
			return err
		}
		if err := h.Storage.UpsertMetUser(partner.ID, user, now, seconds); err != nil {
			return err
		}
		if err := h.Storage.ClearSessionState(partner.ID); err != nil {
			return err
		}
		if err := h.Moderation.RewardDialog(partner.ID, duration); err != nil {
			h.Log.Error().Err(err).Str("user_id", partner.ID).Msg("failed to adjust reputation")
		}
	}
	if err := h.Storage.ClearSessionState(user.ID); err != nil {
		return err
	}
	if err := h.Moderation.RewardDialog(user.ID, duration); err != nil {
		h.Log.Error().Err(err).Str("user_id", user.ID).Msg("failed to adjust reputation")
	}

	h.Events.Emit(telemetry.Event{
		Type:           telemetry.EventSessionEnd,
		ParticipantID:  user.ID,
		PartnerID:      state.PartnerID,
		At:             now,
		SessionSeconds: seconds,
	})
	return nil
}

type reconnectRequestBody struct {
	TargetUserID string `json:"target_user_id"`
}

// RequestReconnect files an approval-gated request to re-pair with a
// previously met user.
func (h *Handler) RequestReconnect(c *gin.Context) {
	user := currentUser(c)

	var body reconnectRequestBody
	if err := c.ShouldBindJSON(&body); err != nil || body.TargetUserID == "" {
		h.fail(c, http.StatusBadRequest, "invalid_target")
		return
	}

	met, err := h.Storage.IsMetUser(user.ID, body.TargetUserID)
	if err != nil {
		h.internalError(c, err, "failed to check met history")
		return
	}
	if !met {
		h.fail(c, http.StatusBadRequest, "invalid_target")
		return
	}

	req := &models.ReconnectRequest{
		RequesterID: user.ID,
		TargetID:    body.TargetUserID,
		Status:      models.ReconnectPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Storage.CreateReconnectRequest(req); err != nil {
		h.internalError(c, err, "failed to create reconnect request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"request_id": req.ID})
}

type reconnectResponseBody struct {
	RequestID string `json:"request_id"`
	Response  string `json:"response"`
}

// RespondReconnect accepts or declines a pending request addressed to the
// caller. Accepting pairs both users immediately.
func (h *Handler) RespondReconnect(c *gin.Context) {
	user := currentUser(c)

	var body reconnectResponseBody
	if err := c.ShouldBindJSON(&body); err != nil || body.RequestID == "" {
		h.fail(c, http.StatusBadRequest, "unknown_request")
		return
	}
	if body.Response != "accept" && body.Response != "decline" {
		h.fail(c, http.StatusBadRequest, "unknown_request")
		return
	}

	req, err := h.Storage.GetReconnectRequest(body.RequestID)
	if errors.Is(err, storage.ErrNotFound) {
		h.fail(c, http.StatusNotFound, "unknown_request")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to load reconnect request")
		return
	}
	if req.TargetID != user.ID {
		h.fail(c, http.StatusNotFound, "unknown_request")
		return
	}

	status := models.ReconnectDeclined
	if body.Response == "accept" {
		status = models.ReconnectAccepted
	}
	won, err := h.Storage.ResolveReconnectRequest(req.ID, status, time.Now().UTC())
	if err != nil {
		h.internalError(c, err, "failed to resolve reconnect request")
		return
	}
	if !won {
		// Someone resolved it first.
		h.fail(c, http.StatusConflict, "unknown_request")
		return
	}

	if status == models.ReconnectDeclined {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if _, err := h.Matcher.PairDirect(user.ID, req.RequesterID); err != nil {
		h.internalError(c, err, "failed to create direct room")
		return
	}
	requester, err := h.Storage.GetUserByID(req.RequesterID)
	if err != nil {
		h.internalError(c, err, "failed to load requester")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "partner": requester.AsPartner()})
}

// GetReconnectRequests is the 10-second poll target for incoming requests.
func (h *Handler) GetReconnectRequests(c *gin.Context) {
	user := currentUser(c)

	rows, err := h.Storage.ListPendingReconnectRequests(user.ID)
	if err != nil {
		h.internalError(c, err, "failed to list reconnect requests")
		return
	}

	requests := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		requester, err := h.Storage.GetUserByID(row.RequesterID)
		if err != nil {
			// Requester row gone; skip rather than fail the poll.
			continue
		}
		requests = append(requests, gin.H{
			"id":         row.ID,
			"requester":  requester.AsPartner(),
			"created_at": row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// MetUsers returns the caller's encounter history, most recent first.
func (h *Handler) MetUsers(c *gin.Context) {
	user := currentUser(c)

	rows, err := h.Storage.ListMetUsers(user.ID)
	if err != nil {
		h.internalError(c, err, "failed to list met users")
		return
	}

	metUsers := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		metUsers = append(metUsers, gin.H{
			"id":               row.PartnerID,
			"username":         row.Username,
			"display_name":     row.DisplayName,
			"avatar_url":       row.AvatarURL,
			"gender":           row.Gender,
			"last_met":         row.LastMet,
			"session_duration": row.SessionDuration,
		})
	}
	c.JSON(http.StatusOK, gin.H{"met_users": metUsers})
}

// StartDirectChat pairs the caller with a met user immediately, without the
// approval round-trip.
func (h *Handler) StartDirectChat(c *gin.Context) {
	user := currentUser(c)

	var body reconnectRequestBody
	if err := c.ShouldBindJSON(&body); err != nil || body.TargetUserID == "" {
		h.fail(c, http.StatusBadRequest, "invalid_target")
		return
	}

	met, err := h.Storage.IsMetUser(user.ID, body.TargetUserID)
	if err != nil {
		h.internalError(c, err, "failed to check met history")
		return
	}
	if !met {
		h.fail(c, http.StatusBadRequest, "invalid_target")
		return
	}

	if _, err := h.Matcher.PairDirect(user.ID, body.TargetUserID); err != nil {
		h.internalError(c, err, "failed to create direct room")
		return
	}
	partner, err := h.Storage.GetUserByID(body.TargetUserID)
	if err != nil {
		h.internalError(c, err, "failed to load partner")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "partner": partner.AsPartner()})
}

type reportBody struct {
	ReportedUserID string `json:"reported_user_id"`
	Reason         string `json:"reason"`
	Description    string `json:"description"`
}

// Report files a report against another user and runs it through the
// moderation pipeline.
func (h *Handler) Report(c *gin.Context) {
	user := currentUser(c)

	var body reportBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ReportedUserID == "" || body.Reason == "" {
		h.fail(c, http.StatusBadRequest, "invalid_target")
		return
	}

	state, err := h.Storage.GetSessionState(user.ID)
	if err != nil {
		h.internalError(c, err, "failed to read session state")
		return
	}
	roomID := ""
	if state != nil {
		roomID = state.RoomID
	}

	report := &models.Report{
		ReporterID:     user.ID,
		ReportedUserID: body.ReportedUserID,
		RoomID:         roomID,
		Reason:         body.Reason,
		Description:    body.Description,
		Status:         "new",
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.Storage.SaveReport(report); err != nil {
		h.internalError(c, err, "failed to save report")
		return
	}
	if err := h.Moderation.HandleReport(report); err != nil {
		h.Log.Error().Err(err).Str("report_id", report.ReportID).Msg("moderation pipeline failed")
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Stats aggregates the caller's chat history.
func (h *Handler) Stats(c *gin.Context) {
	user := currentUser(c)

	rows, err := h.Storage.ListMetUsers(user.ID)
	if err != nil {
		h.internalError(c, err, "failed to list met users")
		return
	}

	total := 0
	for _, row := range rows {
		total += row.SessionDuration
	}
	avg := 0
	if len(rows) > 0 {
		avg = total / len(rows)
	}
	c.JSON(http.StatusOK, gin.H{
		"total_chats":      len(rows),
		"total_time":       total,
		"average_duration": avg,
	})
}

func (h *Handler) internalError(c *gin.Context, err error, msg string) {
	h.Log.Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
