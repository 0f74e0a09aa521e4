package entity

import (
	"time"
)

// User is the aggregate root for the user directory.
// Name and AvatarURL are optional and nil when never set.
type User struct {
	ID           int64
	Email        string
	Name         *string
	AvatarURL    *string
	Followers    int
	IsActive     bool
	RegisteredAt time.Time
}

// NewUser carries the fields a caller may supply on creation.
// Followers, IsActive and RegisteredAt are left to store defaults.
type NewUser struct {
	Email     string
	Name      *string
	AvatarURL *string
}

// UserPatch is a partial update; nil fields are left unchanged.
type UserPatch struct {
	Email     *string
	Name      *string
	AvatarURL *string
	IsActive  *bool
	Followers *int
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Email == nil && p.Name == nil && p.AvatarURL == nil && p.IsActive == nil && p.Followers == nil
}
