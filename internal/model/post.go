package model

import "time"

const (
	StatusNormal  = 0
	StatusDeleted = 1
)

type Post struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	CommunityID  uint64    `gorm:"not null;index:idx_community_time,priority:1" json:"community_id"`
	AuthorID     uint64    `gorm:"not null;index" json:"author_id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Content      string    `gorm:"type:text" json:"content"`
	Status       int       `gorm:"not null;default:0" json:"-"` // 0=normal 1=deleted
	Score        int64     `gorm:"not null;default:0" json:"score"`
	CommentCount int64     `gorm:"not null;default:0" json:"comment_count"`
	CreatedAt    time.Time `gorm:"index:idx_community_time,priority:2" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Comment struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	PostID    uint64    `gorm:"not null;index" json:"post_id"`
	AuthorID  uint64    `gorm:"not null;index" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Status    int       `gorm:"not null;default:0" json:"-"`
	Score     int64     `gorm:"not null;default:0" json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
