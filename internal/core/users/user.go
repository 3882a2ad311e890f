package users

import (
	"time"

	"github.com/google/uuid"
)

// User is an application account. Accounts created through Google login
// carry the provider's subject in ExternalID.
type User struct {
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	ExternalID *string   `json:"-"`
	Username   string    `json:"username"`
	HandleName string    `json:"handleName"`
	AvatarURL  string    `json:"avatarUrl"`
	LoginCount int       `json:"-"`
	ID         uuid.UUID `json:"id"`
	IsPrivate  bool      `json:"isPrivate"`
}

// ProfileUpdate is a partial update of the caller's own profile.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	HandleName *string `json:"handleName,omitempty"`
	AvatarURL  *string `json:"avatarUrl,omitempty"`
	IsPrivate  *bool   `json:"isPrivate,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.HandleName == nil && u.AvatarURL == nil && u.IsPrivate == nil
}
