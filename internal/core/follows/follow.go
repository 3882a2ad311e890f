package follows

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a directed relationship. Follows of a private user start
// unaccepted and act as follow requests until the followed user accepts.
type Follow struct {
	CreatedAt       time.Time `json:"createdAt"`
	ID              uuid.UUID `json:"id"`
	FollowerUserID  uuid.UUID `json:"followerUserId"`
	FollowingUserID uuid.UUID `json:"followingUserId"`
	IsAccepted      bool      `json:"isAccepted"`
}
