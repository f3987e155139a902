package models

import "time"

// CartSnapshotModel stores the serialized cart of one durable slot
type CartSnapshotModel struct {
	Key       string    `gorm:"column:cart_key;type:varchar(255);primaryKey"`
	Data      string    `gorm:"column:data;type:text;not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CartSnapshotModel) TableName() string {
	return "cart_snapshots"
}
