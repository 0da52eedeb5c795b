package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
)

// OrderItem is one line of e-waste declared on a pickup order.
type OrderItem struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Category       string              `gorm:"column:category;not null"`
	Condition      enums.ItemCondition `gorm:"column:condition;type:text;not null"`
	Quantity       int                 `gorm:"column:quantity;not null;default:1"`
	EstimatedPrice decimal.Decimal     `gorm:"column:estimated_price;type:numeric;not null;default:0"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}
