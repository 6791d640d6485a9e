// internal/storage/models/models.go
package models

import "time"

// BaseModel replaces gorm.Model for more control over column defaults.
type BaseModel struct {
	ID        uint       `gorm:"primarykey"`
	CreatedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	DeletedAt *time.Time `gorm:"index"`
}

// LaunchRecord is the durable snapshot of a launch. The engine's in-memory
// map stays authoritative; records are written through on every transition.
type LaunchRecord struct {
	BaseModel
	LaunchID           string `gorm:"unique;not null;type:varchar(64)"`
	Creator            string `gorm:"index;not null;type:varchar(64)"`
	Name               string `gorm:"not null;type:varchar(128)"`
	Symbol             string `gorm:"not null;type:varchar(32)"`
	Description        string `gorm:"type:text"`
	ImageRef           string `gorm:"type:varchar(256)"`
	SocialLinks        string `gorm:"type:text"` // newline-joined, at most four
	Tags               string `gorm:"type:varchar(256)"`
	RestrictedToken    string `gorm:"not null;type:varchar(64)"`
	FreeToken          string `gorm:"type:varchar(64)"`
	PoolID             string `gorm:"index;not null;type:varchar(64)"`
	VenuePoolID        string `gorm:"type:varchar(64)"`
	TradingEnabled     bool
	Graduated          bool `gorm:"index"`
	ReserveAssetRaised uint64
	TokensSold         uint64
	GraduatedAt        *time.Time
}

// TradeRecord is the audit row for one buy or sell.
type TradeRecord struct {
	BaseModel
	LaunchID     string `gorm:"index;not null;type:varchar(64)"`
	Trader       string `gorm:"index;not null;type:varchar(64)"`
	Side         string `gorm:"not null;type:varchar(8)"`
	AmountIn     uint64
	AmountOut    uint64
	TokenReserve uint64
	AssetReserve uint64
}

// PendingGraduation is the durable journal entry staged before the external
// venue is touched. A record that survives a restart marks a graduation that
// must be rolled back.
type PendingGraduation struct {
	BaseModel
	LaunchID       string `gorm:"unique;not null;type:varchar(64)"`
	TradeAmountIn  uint64
	TradeAmountOut uint64
}
