package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GroupBuyOpen    = "open"
	GroupBuyClosed  = "closed"
	GroupBuyExpired = "expired"
)

type GroupBuy struct {
	ID               uint64          `gorm:"primaryKey" json:"id"`
	CommunityID      uint64          `gorm:"not null;index" json:"community_id"`
	CreatorID        uint64          `gorm:"not null;index" json:"creator_id"`
	Title            string          `gorm:"size:120;not null" json:"title"`
	Description      string          `gorm:"type:text" json:"description"`
	ProductURL       string          `gorm:"size:512" json:"product_url"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"unit_price"`
	TargetQuantity   int64           `gorm:"not null" json:"target_quantity"`
	CurrentQuantity  int64           `gorm:"not null;default:0" json:"current_quantity"`
	ParticipantCount int64           `gorm:"not null;default:0" json:"participant_count"`
	Deadline         time.Time       `gorm:"not null;index" json:"deadline"`
	PickupLocation   string          `gorm:"size:255" json:"pickup_location"`
	Status           string          `gorm:"size:16;not null;default:open;index" json:"status"`
	ReachedAt        *time.Time      `json:"reached_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type GroupBuyParticipant struct {
	ID         uint64    `gorm:"primaryKey" json:"-"`
	GroupBuyID uint64    `gorm:"not null;uniqueIndex:uk_groupbuy_user" json:"group_buy_id"`
	UserID     uint64    `gorm:"not null;uniqueIndex:uk_groupbuy_user;index" json:"user_id"`
	Quantity   int64     `gorm:"not null" json:"quantity"`
	Note       string    `gorm:"size:255" json:"note"`
	CreatedAt  time.Time `json:"joined_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type GroupBuyComment struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	GroupBuyID uint64    `gorm:"not null;index" json:"group_buy_id"`
	AuthorID   uint64    `gorm:"not null" json:"author_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// ParticipantView 参与者列表（带昵称）
type ParticipantView struct {
	UserID      uint64    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Quantity    int64     `json:"quantity"`
	Note        string    `json:"note"`
	JoinedAt    time.Time `json:"joined_at"`
}
