package transport

type BillItem struct {
	MenuItemID uint   `json:"menu_item_id"`
	ItemName   string `json:"item_name"`
	Quantity   uint   `json:"quantity"`
	Price      int64  `json:"price"`
}

type CreateBillRequest struct {
	Date           string     `json:"date"`
	Total          int64      `json:"total"`
	OriginalTotal  int64      `json:"original_total"`
	Items          []BillItem `json:"items"`
	Notes          string     `json:"notes"`
	Customer       string     `json:"customer"`
	Phone          string     `json:"phone"`
	CustomerID     uint       `json:"customer_id"`
	PointsUsed     int        `json:"points_used"`
	PointsDiscount int64      `json:"points_discount"`
	TableName      string     `json:"table_name"`
	StaffName      string     `json:"staff_name"`
}

// UpdateBillRequest carries the only fields a created bill may change.
type UpdateBillRequest struct {
	Customer string `json:"customer"`
	Phone    string `json:"phone"`
}

type RecomputeRequest struct {
	Phone string `json:"phone"`
}
