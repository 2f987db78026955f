package models_test

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"ser/app/internal/models"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	user := &models.User{
		Username:  "sara_a",
		Gender:    "female",
		Interests: pq.StringArray{"music", "travel"},
	}

	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	err := user.BeforeCreate(nil) // nil *gorm.DB is acceptable for this hook

	assert.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	parsedUUID, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsedUUID)
}

// TestUserBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestUserBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	user := &models.User{
		ID:       existingID,
		Username: "ahmed_m",
		Gender:   "male",
	}

	err := user.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, user.ID, "BeforeCreate should preserve existing ID")
}

// TestUserStructTags verifies that struct tags are correctly defined for GORM and JSON.
func TestUserStructTags(t *testing.T) {
	userType := reflect.TypeOf(models.User{})

	idField, found := userType.FieldByName("ID")
	assert.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")
	assert.Contains(t, idField.Tag.Get("json"), "id")

	usernameField, found := userType.FieldByName("Username")
	assert.True(t, found)
	assert.Contains(t, usernameField.Tag.Get("gorm"), "uniqueIndex")

	interestsField, found := userType.FieldByName("Interests")
	assert.True(t, found)
	assert.Contains(t, interestsField.Tag.Get("gorm"), "type:text[]", "Interests should use PostgreSQL array type")

	// Moderation fields stay out of API responses.
	repField, found := userType.FieldByName("ReputationScore")
	assert.True(t, found)
	assert.Equal(t, "-", repField.Tag.Get("json"))
}

func TestAsPartnerDropsModerationState(t *testing.T) {
	user := &models.User{
		ID:              "user_1",
		Username:        "sara_a",
		DisplayName:     "سارة أحمد",
		Gender:          "female",
		ReputationScore: 123,
		IsBlocked:       true,
	}

	partner := user.AsPartner()

	assert.Equal(t, "user_1", partner.ID)
	assert.Equal(t, "sara_a", partner.Username)
	assert.Equal(t, "سارة أحمد", partner.DisplayName)
	assert.Equal(t, "female", partner.Gender)
}

func TestChatRoomOtherUser(t *testing.T) {
	room := &models.ChatRoom{RoomID: "room-1", User1ID: "a", User2ID: "b"}

	assert.Equal(t, "b", room.OtherUser("a"))
	assert.Equal(t, "a", room.OtherUser("b"))
}
