package models

import (
	"time"

	"gorm.io/datatypes"
)

type TableStatus string
type PrintJobType string
type PrintJobStatus string

const (
	TableFree TableStatus = "FREE"
	TableOpen TableStatus = "OPEN"

	PrintJobCashierTableSummary PrintJobType = "CASHIER_TABLE_SUMMARY"

	PrintJobQueued  PrintJobStatus = "QUEUED"
	PrintJobPrinted PrintJobStatus = "PRINTED"
)

type SalonTable struct {
	ID      uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID uint        `gorm:"index" json:"store_id"`
	Number  int         `gorm:"not null" json:"number"`
	Status  TableStatus `gorm:"type:VARCHAR(10);default:'FREE'" json:"status"`

	// CurrentSessionID is present iff the table is OPEN; it scopes every
	// dine-in order of one open-to-close cycle.
	CurrentSessionID *string    `json:"current_session_id,omitempty"`
	OpenedAt         *time.Time `json:"opened_at,omitempty"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
}

type PrintJob struct {
	ID      uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID uint           `gorm:"index" json:"store_id"`
	Type    PrintJobType   `gorm:"type:VARCHAR(40);not null" json:"type"`
	Status  PrintJobStatus `gorm:"type:VARCHAR(10);default:'QUEUED';index" json:"status"`

	TableID        *uint   `json:"table_id,omitempty"`
	TableSessionID *string `json:"table_session_id,omitempty"`

	Payload datatypes.JSON `json:"payload"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableSummary is the payload of a CASHIER_TABLE_SUMMARY print job.
type TableSummary struct {
	TableNumber int               `json:"table_number"`
	SessionID   string            `json:"session_id"`
	Items       []TableSummaryRow `json:"items"`
	TotalCents  int64             `json:"total_cents"`
	ClosedAt    time.Time         `json:"closed_at"`
}

type TableSummaryRow struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	TotalCents int64  `json:"total_cents"`
}
