package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文。作成後は不変で、total_amountは再計算しない。
type Order struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64           `gorm:"not null;index" json:"user_id"`
	Reference     string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"reference"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	Address       string          `gorm:"type:text;not null" json:"address"`
	Phone         string          `gorm:"type:varchar(32);not null" json:"phone"`
	PaymentMethod string          `gorm:"type:varchar(64);not null" json:"payment_method"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
