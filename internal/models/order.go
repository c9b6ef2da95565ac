package models

import "time"

// Order is one row of the denormalized order dataset: an order item joined
// with its customer, product and geolocation attributes. Rows are immutable
// inputs; aggregations never modify them.
type Order struct {
	OrderID          string
	CustomerUniqueID string
	CustomerCity     string
	ProductID        string
	ProductCategory  string
	Price            float64
	FreightValue     float64
	GeoLat           float64
	GeoLng           float64
	HasGeo           bool
	PurchasedAt      time.Time
	ApprovedAt       time.Time
	DeliveredCarrier time.Time
	DeliveredAt      time.Time
	EstimatedAt      time.Time
	ShippingLimit    time.Time
}

type DailyOrder struct {
	OrderDate  string  `json:"order_date"`
	OrderCount int     `json:"order_count"`
	Revenue    float64 `json:"revenue"`
}

type CityCustomers struct {
	City          string  `json:"customer_city"`
	GeoLat        float64 `json:"geolocation_lat"`
	GeoLng        float64 `json:"geolocation_lng"`
	TotalCustomer int     `json:"total_customer"`
}

type CategorySales struct {
	Category     string  `json:"product_category_name"`
	TotalProduct int     `json:"total_product"`
	TotalOrder   int     `json:"total_order"`
	TotalPrice   float64 `json:"total_price"`
	TotalFreight float64 `json:"total_freight"`
}

type CustomerRFM struct {
	CustomerUniqueID string  `json:"customer_unique_id"`
	LabelID          string  `json:"customer_label_id"`
	Recency          int     `json:"recency"`
	Frequency        int     `json:"frequency"`
	Monetary         float64 `json:"monetary"`
}

// Summary is the result of one recompute pass: the four derived tables plus
// the two scalar metrics, all freshly allocated per invocation.
type Summary struct {
	DailyOrders   []DailyOrder    `json:"daily_orders"`
	CityCustomers []CityCustomers `json:"customer_by_city"`
	CategorySales []CategorySales `json:"product_category_sales"`
	RFM           []CustomerRFM   `json:"rfm"`
	TotalOrders   int             `json:"total_orders"`
	TotalRevenue  float64         `json:"total_revenue"`
	RangeStart    string          `json:"range_start"`
	RangeEnd      string          `json:"range_end"`
	ComputedAt    time.Time       `json:"computed_at"`
}
