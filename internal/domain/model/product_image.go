package model

import "time"

type ProductImage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"type:varchar(512);not null" json:"url"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
