package models

import (
	"strconv"
	"strings"
	"time"
)

type PricingRule string

const (
	PricingRuleSum       PricingRule = "SUM"
	PricingRuleMaxOption PricingRule = "MAX_OPTION"
	PricingRuleHalfSum   PricingRule = "HALF_SUM"
)

type OptionGroupType string

const (
	OptionGroupSingle OptionGroupType = "SINGLE"
	OptionGroupMulti  OptionGroupType = "MULTI"
)

type Category struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID  uint      `gorm:"index" json:"store_id"`
	Name     string    `gorm:"not null" json:"name"`
	Position int       `json:"position"`
	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

type Product struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID     uint   `gorm:"index" json:"store_id"`
	CategoryID  uint   `gorm:"index" json:"category_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	BasePriceCents int64       `gorm:"not null" json:"base_price_cents"`
	PricingRule    PricingRule `gorm:"type:VARCHAR(20);default:'SUM'" json:"pricing_rule"`
	IsActive       bool        `gorm:"default:true" json:"is_active"`

	// Weekdays is a comma-separated list of 1..7 (1=Mon). Empty means
	// the product is sold every day.
	Weekdays string `json:"weekdays"`

	AvailabilityWindows []AvailabilityWindow `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"availability_windows,omitempty"`
	OptionGroups        []OptionGroup        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"option_groups,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WeekdaySet parses Weekdays into a lookup set. Empty input yields an
// empty set, which callers treat as "every day".
func (p Product) WeekdaySet() map[int]bool {
	set := make(map[int]bool)
	for _, part := range strings.Split(p.Weekdays, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if d, err := strconv.Atoi(part); err == nil && d >= 1 && d <= 7 {
			set[d] = true
		}
	}
	return set
}

// AvailabilityWindow is a [StartMinute, EndMinute) slice of the local day,
// in minutes since midnight (0..1440).
type AvailabilityWindow struct {
	ID          uint `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   uint `gorm:"index" json:"product_id"`
	StartMinute int  `gorm:"not null" json:"start_minute"`
	EndMinute   int  `gorm:"not null" json:"end_minute"`
	IsActive    bool `gorm:"default:true" json:"is_active"`
}

type OptionGroup struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint            `gorm:"index" json:"product_id"`
	Name      string          `gorm:"not null" json:"name"`
	Type      OptionGroupType `gorm:"type:VARCHAR(10);default:'SINGLE'" json:"type"`
	Required  bool            `gorm:"default:false" json:"required"`
	MinSelect int             `json:"min_select"`
	// MaxSelect 0 means unbounded for MULTI groups; SINGLE is always 1.
	MaxSelect int          `json:"max_select"`
	Items     []OptionItem `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type OptionItem struct {
	ID              uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID         uint   `gorm:"index" json:"group_id"`
	Name            string `gorm:"not null" json:"name"`
	PriceDeltaCents int64  `json:"price_delta_cents"`
	IsActive        bool   `gorm:"default:true" json:"is_active"`
}
