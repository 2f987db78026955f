// Package storage is the persistence layer: PostgreSQL (via GORM) for users,
// rooms, met-user history, reconnect requests and reports; Redis for the
// volatile pairing state — the search queue, the per-user session state that
// clients poll, and ban flags.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ser/app/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record_not_found")

// SessionState is the live pairing state of one user, kept in Redis. It is
// the authority for "who is paired with whom"; the client-side state machine
// is a cache that reconciles against it on each poll.
type SessionState struct {
	Status    string    `json:"status"` // "waiting" or "connected"
	RoomID    string    `json:"room_id,omitempty"`
	PartnerID string    `json:"partner_id,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Storage is everything the handlers, matcher and moderation service need
// from persistence.
type Storage interface {
	// Users
	SaveUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	GetOrCreateUser(id string) (*models.User, error)
	UpdateUser(user *models.User) error
	UpdateUserReputation(userID string, delta int) error
	IsUserBanned(userID string) (bool, error)
	SetBanFlag(userID string, duration time.Duration) error
	ClearBanFlag(userID string) error

	// Rooms
	SaveRoom(room *models.ChatRoom) error
	CloseRoom(roomID string, endedAt time.Time) error
	GetRoomByID(roomID string) (*models.ChatRoom, error)
	GetActiveRoomIDs() ([]string, error)

	// Met-user history
	UpsertMetUser(ownerID string, partner *models.User, lastMet time.Time, durationSeconds int) error
	ListMetUsers(ownerID string) ([]models.MetUser, error)
	IsMetUser(ownerID, partnerID string) (bool, error)

	// Reconnect requests
	CreateReconnectRequest(req *models.ReconnectRequest) error
	GetReconnectRequest(id string) (*models.ReconnectRequest, error)
	ListPendingReconnectRequests(targetID string) ([]models.ReconnectRequest, error)
	ResolveReconnectRequest(id, status string, resolvedAt time.Time) (bool, error)

	// Reports
	SaveReport(report *models.Report) error
	GetReportByID(id string) (*models.Report, error)
	GetReportsForUser(userID string, since time.Time) ([]models.Report, error)
	UpdateReportStatus(id, status string) error

	// Live pairing state
	SetSessionState(userID string, state SessionState) error
	GetSessionState(userID string) (*SessionState, error)
	ClearSessionState(userID string) error

	// Search queue
	AddUserToSearchQueue(userID string) error
	RemoveUserFromSearchQueue(userID string) error
	GetSearchingUsers() ([]string, error)
}

// Service implements Storage over GORM and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService constructor.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// --- Users ---

func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateUser resolves a user row for a token-carried anon id, creating
// the row on first contact.
func (s *Service) GetOrCreateUser(id string) (*models.User, error) {
	var user models.User
	defaults := models.User{ID: id, ReputationScore: 1000}
	if err := s.DB.Where("id = ?", id).FirstOrCreate(&user, defaults).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) UpdateUser(user *models.User) error {
	return s.DB.Save(user).Error
}

func (s *Service) UpdateUserReputation(userID string, delta int) error {
	return s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("reputation_score", gorm.Expr("reputation_score + ?", delta)).Error
}

// IsUserBanned checks the ban flag in Redis (fast path).
func (s *Service) IsUserBanned(userID string) (bool, error) {
	status, err := s.Redis.Get(s.Ctx, "ban:"+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status != "", nil
}

func (s *Service) SetBanFlag(userID string, duration time.Duration) error {
	return s.Redis.Set(s.Ctx, "ban:"+userID, "active", duration).Err()
}

func (s *Service) ClearBanFlag(userID string) error {
	return s.Redis.Del(s.Ctx, "ban:"+userID).Err()
}

// --- Rooms ---

func (s *Service) SaveRoom(room *models.ChatRoom) error {
	return s.DB.Save(room).Error
}

func (s *Service) CloseRoom(roomID string, endedAt time.Time) error {
	return s.DB.Model(&models.ChatRoom{}).
		Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  endedAt,
		}).Error
}

func (s *Service) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Service) GetActiveRoomIDs() ([]string, error) {
	var roomIDs []string
	if err := s.DB.Model(&models.ChatRoom{}).
		Where("is_active = ?", true).
		Pluck("room_id", &roomIDs).Error; err != nil {
		return nil, err
	}
	return roomIDs, nil
}

// --- Met-user history ---

// UpsertMetUser records an encounter: one row per (owner, partner), the
// newer encounter replaces the older one.
func (s *Service) UpsertMetUser(ownerID string, partner *models.User, lastMet time.Time, durationSeconds int) error {
	var row models.MetUser
	err := s.DB.Where("owner_id = ? AND partner_id = ?", ownerID, partner.ID).First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if row.LastMet.After(lastMet) {
		// Out-of-order replay of an older encounter; last_met is
		// monotonic per partner.
		return nil
	}
	row.OwnerID = ownerID
	row.PartnerID = partner.ID
	row.Username = partner.Username
	row.DisplayName = partner.DisplayName
	row.AvatarURL = partner.AvatarURL
	row.Gender = partner.Gender
	row.LastMet = lastMet
	row.SessionDuration = durationSeconds
	return s.DB.Save(&row).Error
}

func (s *Service) ListMetUsers(ownerID string) ([]models.MetUser, error) {
	var rows []models.MetUser
	err := s.DB.Where("owner_id = ?", ownerID).
		Order("last_met desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) IsMetUser(ownerID, partnerID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.MetUser{}).
		Where("owner_id = ? AND partner_id = ?", ownerID, partnerID).
		Count(&count).Error
	return count > 0, err
}

// --- Reconnect requests ---

func (s *Service) CreateReconnectRequest(req *models.ReconnectRequest) error {
	return s.DB.Create(req).Error
}

func (s *Service) GetReconnectRequest(id string) (*models.ReconnectRequest, error) {
	var req models.ReconnectRequest
	err := s.DB.First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Service) ListPendingReconnectRequests(targetID string) ([]models.ReconnectRequest, error) {
	var reqs []models.ReconnectRequest
	err := s.DB.Where("target_id = ? AND status = ?", targetID, models.ReconnectPending).
		Order("created_at asc").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// ResolveReconnectRequest flips a pending request to the given status. The
// pending guard in the WHERE clause makes double resolution impossible; the
// bool reports whether this call won.
func (s *Service) ResolveReconnectRequest(id, status string, resolvedAt time.Time) (bool, error) {
	result := s.DB.Model(&models.ReconnectRequest{}).
		Where("id = ? AND status = ?", id, models.ReconnectPending).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_at": resolvedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// --- Reports ---

func (s *Service) SaveReport(report *models.Report) error {
	return s.DB.Create(report).Error
}

func (s *Service) GetReportByID(id string) (*models.Report, error) {
	var report models.Report
	err := s.DB.First(&report, "report_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Service) GetReportsForUser(userID string, since time.Time) ([]models.Report, error) {
	var reports []models.Report
	err := s.DB.Where("reported_user_id = ? AND created_at > ?", userID, since).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Service) UpdateReportStatus(id, status string) error {
	return s.DB.Model(&models.Report{}).
		Where("report_id = ?", id).
		Update("status", status).Error
}

// --- Live pairing state (Redis) ---

func sessionKey(userID string) string { return "session:" + userID }

func (s *Service) SetSessionState(userID string, state SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.Redis.Set(s.Ctx, sessionKey(userID), data, 0).Err()
}

// GetSessionState returns nil without error when the user has no live state.
func (s *Service) GetSessionState(userID string) (*SessionState, error) {
	data, err := s.Redis.Get(s.Ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Service) ClearSessionState(userID string) error {
	return s.Redis.Del(s.Ctx, sessionKey(userID)).Err()
}

// --- Search queue (Redis) ---

func (s *Service) AddUserToSearchQueue(userID string) error {
	return s.Redis.SAdd(s.Ctx, "search_queue", userID).Err()
}

func (s *Service) RemoveUserFromSearchQueue(userID string) error {
	return s.Redis.SRem(s.Ctx, "search_queue", userID).Err()
}

func (s *Service) GetSearchingUsers() ([]string, error) {
	return s.Redis.SMembers(s.Ctx, "search_queue").Result()
}
