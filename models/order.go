package models

import "time"

type OrderStatus string
type FulfillmentType string
type PaymentMethod string

const (
	// Order lifecycle: NEW -> PRINTING -> PRINTED, with PRINTING -> NEW
	// as the reprint path.
	OrderStatusNew      OrderStatus = "NEW"
	OrderStatusPrinting OrderStatus = "PRINTING"
	OrderStatusPrinted  OrderStatus = "PRINTED"

	FulfillmentPickup   FulfillmentType = "PICKUP"
	FulfillmentDelivery FulfillmentType = "DELIVERY"
	FulfillmentDineIn   FulfillmentType = "DINE_IN"

	PaymentPix  PaymentMethod = "PIX"
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
)

type Order struct {
	ID      uint `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID uint `gorm:"index;not null" json:"store_id"`

	Status          OrderStatus     `gorm:"type:VARCHAR(20);default:'NEW';index" json:"status"`
	FulfillmentType FulfillmentType `gorm:"type:VARCHAR(20);not null" json:"fulfillment_type"`
	PaymentMethod   PaymentMethod   `gorm:"type:VARCHAR(20)" json:"payment_method"`

	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`

	// ChangeForCents is only meaningful for CASH payments.
	ChangeForCents      int64 `json:"change_for_cents"`
	DeliveryFeeCents    int64 `json:"delivery_fee_cents"`
	ConvenienceFeeCents int64 `json:"convenience_fee_cents"`
	TotalCents          int64 `json:"total_cents"`

	DeliveryAreaID *uint   `json:"delivery_area_id,omitempty"`
	TableID        *uint   `gorm:"index" json:"table_id,omitempty"`
	TableSessionID *string `gorm:"index" json:"table_session_id,omitempty"`

	// ShortCode is the human-readable order reference shown to staff.
	ShortCode string `gorm:"index" json:"short_code"`
	// ReceiptToken allows unauthenticated receipt retrieval.
	ReceiptToken string `gorm:"uniqueIndex" json:"-"`

	PrintingClaimedAt *time.Time `json:"printing_claimed_at,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem freezes the product name and unit price at order time so
// receipts survive later menu edits.
type OrderItem struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        uint   `gorm:"index" json:"order_id"`
	ProductID      uint   `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int    `gorm:"not null" json:"quantity"`
	UnitPriceCents int64  `gorm:"not null" json:"unit_price_cents"`
	Notes          string `json:"notes"`

	Options []OrderItemOption `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE" json:"options"`
}

// OrderItemOption is a denormalized snapshot of one selected option.
type OrderItemOption struct {
	ID              uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderItemID     uint   `gorm:"index" json:"order_item_id"`
	GroupName       string `json:"group_name"`
	ItemName        string `json:"item_name"`
	PriceDeltaCents int64  `json:"price_delta_cents"`
}
