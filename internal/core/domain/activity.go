package domain

import "time"

// Action labels stored on activity rows.
const (
	ActionItemAdded      = "ITEM_ADDED"
	ActionItemUpdated    = "ITEM_UPDATED"
	ActionItemDeleted    = "ITEM_DELETED"
	ActionSaleRecorded   = "SALE_RECORDED"
	ActionSaleReversed   = "SALE_REVERSED"
	ActionSalesReset     = "SALES_RESET"
	ActionRestoreSkipped = "RESTORE_SKIPPED"
)

// ActivityEntry is one append-only audit trail row.
type ActivityEntry struct {
	ID        string
	UserID    string
	Action    string
	Details   string
	Timestamp time.Time
}
