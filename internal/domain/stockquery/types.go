package stockquery

import (
	"time"

	"millstock/internal/core/types"
	"millstock/internal/ledger"
)

// BatchAvailability is a batch joined with its consumption to date.
// Used and remaining figures are derived at query time from ledger
// movements and production lines, bale counts come from the lines
// directly rather than pro-rating from kilograms.
type BatchAvailability struct {
	BatchID       string         `json:"batchId"`
	Date          time.Time      `json:"date"`
	Supplier      string         `json:"supplier"`
	OriginalKg    types.Quantity `json:"originalKg"`
	OriginalBale  int            `json:"originalBale"`
	UsedKg        types.Quantity `json:"usedKg"`
	UsedBale      int            `json:"usedBale"`
	RemainingKg   types.Quantity `json:"remainingKg"`
	RemainingBale int            `json:"remainingBale"`
}

// Turnover summarizes one stream over a period: the balance going in,
// total receipts and expenses inside the period, and the balance going out.
type Turnover struct {
	Stream   ledger.StreamKey `json:"stream"`
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
	Opening  types.Quantity   `json:"opening"`
	Receipts types.Quantity   `json:"receipts"`
	Expenses types.Quantity   `json:"expenses"`
	Closing  types.Quantity   `json:"closing"`
}
