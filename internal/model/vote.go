package model

import "time"

const (
	TargetPost    = "post"
	TargetComment = "comment"
)

// Vote 每个用户对每个对象最多一票，value 为 +1 或 -1
type Vote struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	UserID     uint64    `gorm:"not null;uniqueIndex:uk_vote_user_target,priority:1"`
	TargetType string    `gorm:"size:16;not null;uniqueIndex:uk_vote_user_target,priority:2;index:idx_vote_target,priority:1"`
	TargetID   uint64    `gorm:"not null;uniqueIndex:uk_vote_user_target,priority:3;index:idx_vote_target,priority:2"`
	Value      int       `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Vote) TableName() string {
	return "votes"
}
