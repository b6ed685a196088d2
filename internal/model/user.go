package model

import "time"

const (
	RoleUser  = 0
	RoleAdmin = 1
)

type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      int       `gorm:"default:0" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile 对外展示的资料，与 users 一对一
type UserProfile struct {
	ID              uint64    `gorm:"primaryKey" json:"-"`
	UserID          uint64    `gorm:"uniqueIndex;not null" json:"user_id"`
	DisplayName     string    `gorm:"size:50;not null" json:"display_name"`
	AvatarURL       string    `gorm:"size:512" json:"avatar_url"`
	Bio             string    `gorm:"size:280" json:"bio"`
	HomeCommunityID *uint64   `gorm:"index" json:"home_community_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
