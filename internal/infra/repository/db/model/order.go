package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord 已成立訂單的資料庫封存
// ledger 仍以 kv 為主，這裡只是鏡像
type OrderRecord struct {
	OrderID       string            `gorm:"primaryKey;type:varchar(32)" json:"order_id"`
	PlacedAt      time.Time         `gorm:"not null;index" json:"placed_at"`
	Coupon        *string           `gorm:"type:varchar(64)" json:"coupon"`
	Subtotal      decimal.Decimal   `gorm:"not null;type:decimal(14,4)" json:"subtotal"`
	Discount      decimal.Decimal   `gorm:"not null;type:decimal(14,4)" json:"discount"`
	TaxableAmount decimal.Decimal   `gorm:"not null;type:decimal(14,4)" json:"taxable_amount"`
	Tax           decimal.Decimal   `gorm:"not null;type:decimal(14,4)" json:"tax"`
	Shipping      decimal.Decimal   `gorm:"not null;type:decimal(14,4)" json:"shipping"`
	Total         decimal.Decimal   `gorm:"not null;type:decimal(14,2)" json:"total"`
	CustomerName  string            `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerEmail string            `gorm:"type:varchar(255)" json:"customer_email"`
	Items         []OrderItemRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"` // 一對多，級聯刪除
	ArchiveModel
}

type OrderItemRecord struct {
	OrderID   string          `gorm:"primaryKey;type:varchar(32)" json:"order_id"` // 外鍵，關聯到 OrderRecord
	Name      string          `gorm:"primaryKey;type:varchar(255)" json:"name"`
	UnitPrice decimal.Decimal `gorm:"not null;type:decimal(14,4)" json:"unit_price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	ArchiveModel
}
