package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventCommunityJoined       = "community.joined"
	EventPostCreated           = "post.created"
	EventGroupBuyCreated       = "groupbuy.created"
	EventGroupBuyJoined        = "groupbuy.joined"
	EventGroupBuyTargetReached = "groupbuy.target_reached"
)

const (
	OutboxPending = 0
	OutboxSent    = 1
	OutboxFailed  = 2
)

// ActivityOutbox 与业务写入同事务落库，再由 relayer 异步投递
type ActivityOutbox struct {
	ID          uint64         `gorm:"primaryKey"`
	EventType   string         `gorm:"size:32;not null"`
	AggregateID uint64         `gorm:"not null"`
	ActorID     uint64         `gorm:"not null"`
	Payload     datatypes.JSON `gorm:"not null"`
	Status      int8           `gorm:"not null;default:0;index"` // 0=pending,1=sent,2=failed
	Retry       int            `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ActivityOutbox) TableName() string { return "activity_outbox" }
