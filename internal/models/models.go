package models

import "time"

// ProductMetadata is the merged view of a single listing: affiliate API
// fields first, scrape results backfilling title/image only.
type ProductMetadata struct {
	Title          string `json:"title"`
	Price          string `json:"price"`
	OriginalPrice  string `json:"originalPrice"`
	Discount       string `json:"discount"`
	StoreName      string `json:"storeName"`
	Rating         string `json:"rating,omitempty"`
	Orders         string `json:"orders,omitempty"`
	Shipping       string `json:"shipping,omitempty"`
	Category       string `json:"category,omitempty"`
	CommissionRate string `json:"commissionRate,omitempty"`
	ShopURL        string `json:"shopUrl,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
}

// OfferItem is one generated tracking link. Link always holds a usable URL:
// the affiliate link when generation succeeded, the raw target otherwise.
type OfferItem struct {
	Name    string `json:"name"`
	Link    string `json:"link"`
	Success bool   `json:"success"`
}

// ProductResponse is the single unit of output of the pipeline.
// Offers always has exactly eight entries in the fixed shape order.
type ProductResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	ProductMetadata
	SearchedAt time.Time   `json:"searchedAt"`
	Offers     []OfferItem `json:"offers"`
}
