package models

import "time"

type HoursOverride string

const (
	OverrideNone        HoursOverride = ""
	OverrideForceOpen   HoursOverride = "FORCE_OPEN"
	OverrideForceClosed HoursOverride = "FORCE_CLOSED"
)

type Store struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	Timezone string `gorm:"not null;default:'America/Sao_Paulo'" json:"timezone"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	PickupEnabled   bool `gorm:"default:true" json:"pickup_enabled"`
	DeliveryEnabled bool `gorm:"default:true" json:"delivery_enabled"`
	DineInEnabled   bool `gorm:"default:false" json:"dine_in_enabled"`

	// AutoPrint makes new orders start life already claimed for printing.
	AutoPrint bool `gorm:"default:false" json:"auto_print"`

	AcceptPix  bool `gorm:"default:true" json:"accept_pix"`
	AcceptCash bool `gorm:"default:true" json:"accept_cash"`
	AcceptCard bool `gorm:"default:true" json:"accept_card"`

	RequireChangeInfo   bool  `gorm:"default:false" json:"require_change_info"`
	ConvenienceFeeCents int64 `gorm:"default:0" json:"convenience_fee_cents"`

	ClosedMessage string        `json:"closed_message"`
	HoursOverride HoursOverride `gorm:"type:VARCHAR(20);default:''" json:"hours_override"`

	Hours         []StoreHour    `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"hours,omitempty"`
	Products      []Product      `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"products,omitempty"`
	DeliveryAreas []DeliveryArea `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"delivery_areas,omitempty"`
	Tables        []SalonTable   `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"tables,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreHour is one weekday row of the weekly schedule.
// Weekday uses 1=Monday .. 7=Sunday.
type StoreHour struct {
	ID          uint `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID     uint `gorm:"index" json:"store_id"`
	Weekday     int  `gorm:"not null" json:"weekday"`
	Enabled     bool `gorm:"default:false" json:"enabled"`
	OpenMinute  int  `json:"open_minute"`
	CloseMinute int  `json:"close_minute"`
}

type DeliveryArea struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID  uint   `gorm:"index" json:"store_id"`
	Name     string `gorm:"not null" json:"name"`
	FeeCents int64  `json:"fee_cents"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}
