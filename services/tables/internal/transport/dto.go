package transport

type CreateTableRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Floor    int    `json:"floor"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type NewOrderItem struct {
	MenuItemID uint   `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   uint   `json:"quantity"`
	Price      int64  `json:"price"`
	Notes      string `json:"notes"`
}

type AddItemsRequest struct {
	Items []NewOrderItem `json:"items"`
	Notes string         `json:"notes"`
}

// CheckoutRequest carries the customer context for bill materialization.
type CheckoutRequest struct {
	Customer       string `json:"customer"`
	Phone          string `json:"phone"`
	CustomerID     uint   `json:"customer_id"`
	PointsUsed     int    `json:"points_used"`
	PointsDiscount int64  `json:"points_discount"`
}
