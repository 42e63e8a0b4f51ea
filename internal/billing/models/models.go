package models

import "time"

// Bill is the immutable financial record of a closed order. Only the
// customer contact fields may change after creation; every such change
// re-triggers loyalty reconciliation.
type Bill struct {
	ID             uint       `gorm:"primaryKey"        json:"id"`
	Customer       string     `gorm:"index"             json:"customer"`
	Phone          string     `gorm:"index"             json:"phone"`
	Date           string     `gorm:"index;not null"    json:"date"`
	Total          int64      `gorm:"not null"          json:"total"`
	OriginalTotal  int64      `json:"original_total"`
	PointsUsed     int        `gorm:"default:0"         json:"points_used"`
	PointsDiscount int64      `gorm:"default:0"         json:"points_discount"`
	TableName      string     `json:"table_name"`
	StaffName      string     `json:"staff_name"`
	CustomerID     uint       `json:"customer_id,omitempty"`
	Notes          string     `json:"notes"`
	// IdempotencyKey is the client-generated correlation key; the unique
	// index is what makes a replayed creation return the original bill
	// instead of a duplicate.
	IdempotencyKey string     `gorm:"uniqueIndex;default:null" json:"idempotency_key,omitempty"`
	Items          []BillItem `gorm:"foreignKey:BillID" json:"items"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NOTE: Bill has no gorm TableName() method because the struct's TableName
// field (the restaurant table's display name) occupies that identifier; the
// default naming strategy already maps Bill to the "bills" table.

type BillItem struct {
	ID         uint   `gorm:"primaryKey"     json:"id"`
	BillID     uint   `gorm:"index;not null" json:"bill_id"`
	MenuItemID uint   `json:"menu_item_id"`
	ItemName   string `gorm:"not null"       json:"item_name"`
	Quantity   uint   `gorm:"not null"       json:"quantity"`
	Price      int64  `gorm:"not null"       json:"price"`
}

func (BillItem) TableName() string { return "bill_items" }

func (i *BillItem) Subtotal() int64 {
	return int64(i.Quantity) * i.Price
}
