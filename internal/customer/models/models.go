package models

import "time"

// Customer is the loyalty record, keyed by phone. total_spent and
// visit_count are eventually equal to the sum and count of all bills for
// the phone; the recompute path in billing restores that equality on
// demand.
type Customer struct {
	ID            uint      `gorm:"primaryKey"           json:"id"`
	Name          string    `gorm:"index"                json:"name"`
	Phone         string    `gorm:"uniqueIndex;not null" json:"phone"`
	LoyaltyPoints int       `gorm:"default:0"            json:"loyalty_points"`
	TotalSpent    int64     `gorm:"default:0"            json:"total_spent"`
	VisitCount    int       `gorm:"default:0"            json:"visit_count"`
	LastVisit     string    `json:"last_visit,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

// LoyaltyTier buckets the point balance for the front desk.
func (c *Customer) LoyaltyTier() string {
	switch {
	case c.LoyaltyPoints >= 500:
		return "Platinum"
	case c.LoyaltyPoints >= 200:
		return "Gold"
	case c.LoyaltyPoints >= 100:
		return "Silver"
	case c.LoyaltyPoints >= 50:
		return "Bronze"
	default:
		return "Standard"
	}
}
