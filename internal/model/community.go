package model

import "time"

// 社区类型：按楼宇、按组屋片区、按邮区
const (
	KindBuilding = "building"
	KindEstate   = "estate"
	KindSector   = "sector"
)

const (
	MemberRoleMember = 0
	MemberRoleAdmin  = 1
)

type Community struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Kind        string    `gorm:"size:16;not null" json:"kind"`
	Sector      string    `gorm:"size:2;index;not null" json:"sector"`
	District    int       `gorm:"not null" json:"district"`
	Region      string    `gorm:"size:32;index" json:"region"`
	Description string    `gorm:"type:text" json:"description"`
	CreatorID   uint64    `gorm:"not null;default:0" json:"creator_id"`
	MemberCount int64     `gorm:"not null;default:0" json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CommunityMember struct {
	ID          uint64    `gorm:"primaryKey" json:"-"`
	CommunityID uint64    `gorm:"not null;index;uniqueIndex:uk_community_user" json:"community_id"`
	UserID      uint64    `gorm:"not null;index;uniqueIndex:uk_community_user" json:"user_id"`
	Role        int       `gorm:"not null;default:0" json:"role"` // 0=member, 1=admin
	CreatedAt   time.Time `json:"joined_at"`
	UpdatedAt   time.Time `json:"-"`
}

// MemberView 成员列表（带昵称）
type MemberView struct {
	UserID      uint64    `json:"user_id"`
	Role        int       `json:"role"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	JoinedAt    time.Time `json:"joined_at"`
}
