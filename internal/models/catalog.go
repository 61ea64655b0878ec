package models

// Product is a sellable catalog entry. Catalog entries are loaded once at
// startup and never mutated afterwards.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Duration    string `json:"duration"`
	Ingredients string `json:"ingredients"`
	Warnings    string `json:"warnings"`
	Image       string `json:"image"`
}

// Button is a quick-reply option attached to an outbound message
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Quick-reply ids for the payment step
const (
	ButtonPayCash     = "pay_cash"
	ButtonPayTransfer = "pay_transfer"
)
