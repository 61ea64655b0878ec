package models

import "time"

// Order is the archived record of a finalized conversation
type Order struct {
	ID              int64     `db:"id" json:"id"`
	Reference       string    `db:"reference" json:"reference"`
	CustomerID      string    `db:"customer_id" json:"customer_id"`
	CustomerName    string    `db:"customer_name" json:"customer_name,omitempty"`
	ProductID       string    `db:"product_id" json:"product_id"`
	ProductName     string    `db:"product_name" json:"product_name"`
	UnitPrice       int64     `db:"unit_price" json:"unit_price"`
	Quantity        int       `db:"quantity" json:"quantity"`
	TotalAmount     int64     `db:"total_amount" json:"total_amount"`
	Latitude        float64   `db:"latitude" json:"latitude"`
	Longitude       float64   `db:"longitude" json:"longitude"`
	LocationName    string    `db:"location_name" json:"location_name,omitempty"`
	LocationAddress string    `db:"location_address" json:"location_address,omitempty"`
	PaymentMethod   string    `db:"payment_method" json:"payment_method"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// HasCoordinates reports whether the delivery point carries a usable position
func (o *Order) HasCoordinates() bool {
	return o.Latitude != 0 || o.Longitude != 0
}
