package transport

type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type UpdateFromBillRequest struct {
	Phone            string `json:"phone"`
	CustomerName     string `json:"customer_name"`
	Total            int64  `json:"total"`
	OriginalTotal    int64  `json:"original_total"`
	PointsUsed       int    `json:"points_used"`
	ShouldEarnPoints bool   `json:"should_earn_points"`
}

type SetLoyaltyRequest struct {
	Phone         string `json:"phone"`
	CustomerName  string `json:"customer_name"`
	LoyaltyPoints int    `json:"loyalty_points"`
	TotalSpent    int64  `json:"total_spent"`
	VisitCount    int    `json:"visit_count"`
}
