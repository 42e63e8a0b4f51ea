package models

import "time"

const (
	StatusAvailable = "available"
	StatusOccupied  = "occupied"
	StatusReserved  = "reserved"
)

func ValidStatus(s string) bool {
	return s == StatusAvailable || s == StatusOccupied || s == StatusReserved
}

type Table struct {
	ID        uint      `gorm:"primaryKey"                 json:"id"`
	Name      string    `gorm:"uniqueIndex;not null"       json:"name"`
	Capacity  int       `gorm:"default:4"                  json:"capacity"`
	Floor     int       `gorm:"index;default:0"            json:"floor"`
	Status    string    `gorm:"not null;default:available" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Table) TableName() string { return "tables" }

type Order struct {
	ID          uint        `gorm:"primaryKey"           json:"id"`
	TableID     uint        `gorm:"index;not null"       json:"table_id"`
	IsCompleted bool        `gorm:"index;default:false"  json:"is_completed"`
	Notes       string      `json:"notes"`
	CreatedBy   string      `json:"created_by"`
	// BillingKey is generated once per order before the first billing attempt
	// and reused on every retry, so a replayed checkout cannot double-bill.
	BillingKey string      `gorm:"index"                json:"billing_key,omitempty"`
	BillID     uint        `json:"bill_id,omitempty"`
	Items      []OrderItem `gorm:"foreignKey:OrderID"   json:"items"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (Order) TableName() string { return "table_orders" }

// Total is always derived from the items, never cached.
func (o *Order) Total() int64 {
	var total int64
	for i := range o.Items {
		total += o.Items[i].Subtotal()
	}
	return total
}

type OrderItem struct {
	ID         uint      `gorm:"primaryKey"                 json:"id"`
	OrderID    uint      `gorm:"index;not null"             json:"order_id"`
	MenuItemID uint      `json:"menu_item_id"`
	Name       string    `gorm:"not null"                   json:"name"`
	Quantity   uint      `gorm:"default:1;check:quantity>0" json:"quantity"`
	Price      int64     `gorm:"not null"                   json:"price"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OrderItem) TableName() string { return "table_order_items" }

func (i *OrderItem) Subtotal() int64 {
	return int64(i.Quantity) * i.Price
}
