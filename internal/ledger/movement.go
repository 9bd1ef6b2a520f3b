// Package ledger provides the stock movement ledger: an ordered sequence of
// signed quantity changes per material stream, with a cached running balance.
package ledger

import (
	"strings"
	"time"

	"millstock/internal/core/id"
	"millstock/internal/core/types"
)

// StreamKey identifies one material partition of the ledger.
// Cotton and Waste are single streams; yarn is partitioned by spun count
// ("Yarn:30s", "Yarn:40s", ...).
type StreamKey string

const (
	StreamCotton StreamKey = "Cotton"
	StreamWaste  StreamKey = "Waste"

	yarnPrefix = "Yarn:"
)

// YarnStream returns the stream key for one spun count.
// The count is a free-form label, e.g. "30s".
func YarnStream(count string) StreamKey {
	return StreamKey(yarnPrefix + count)
}

// IsYarn reports whether the key addresses a yarn partition.
func (k StreamKey) IsYarn() bool {
	return strings.HasPrefix(string(k), yarnPrefix)
}

// YarnCount returns the spun count label, or "" for non-yarn streams.
func (k StreamKey) YarnCount() string {
	if !k.IsYarn() {
		return ""
	}
	return strings.TrimPrefix(string(k), yarnPrefix)
}

// Material returns the coarse material name: "Cotton", "Waste" or "Yarn".
func (k StreamKey) Material() string {
	if k.IsYarn() {
		return "Yarn"
	}
	return string(k)
}

func (k StreamKey) String() string { return string(k) }

// MovementType tags the business origin of a movement.
type MovementType string

const (
	TypeInward        MovementType = "INWARD"
	TypeProduction    MovementType = "PRODUCTION"
	TypeOutward       MovementType = "OUTWARD"
	TypeRecycle       MovementType = "RECYCLE"
	TypeExport        MovementType = "EXPORT"
	TypeRecycledWaste MovementType = "RECYCLED_WASTE"
	TypeCorrection    MovementType = "CORRECTION"
)

// Movement is one row of a ledger stream.
//
// Ordering convention: movements are ordered by (Date, ID). When two
// movements share a business date, the one inserted earlier (lower ID)
// is treated as occurring first. Tests pin this convention.
//
// Balance caches the running sum of Quantity over the stream up to and
// including this row under that ordering. It is a performance cache over
// the canonical prefix sum, never an independent source of truth; the
// recalculation engine repairs it after any non-append-only mutation.
type Movement struct {
	// ID is assigned at insert time, monotonically increasing, never reused.
	ID int64 `db:"id" json:"id"`

	// Date is the business-effective date. Backdated values are legal:
	// insertion order and date order are independent.
	Date time.Time `db:"date" json:"date"`

	Stream StreamKey    `db:"stream" json:"stream"`
	Type   MovementType `db:"movement_type" json:"type"`

	// Quantity is signed: positive increases stock, negative decreases.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Balance is the cached running sum (see type comment).
	Balance types.Quantity `db:"balance" json:"balance"`

	// Reference links back to the originating document
	// (batch id, "P-<production id>", "O-<outward id>").
	Reference string `db:"reference" json:"reference"`

	// BatchID links Cotton movements to an inward batch for per-batch
	// exhaustion accounting. Empty for other streams.
	BatchID string `db:"batch_id" json:"batchId,omitempty"`

	// PairID cross-references the two movements created by one recycle
	// action (negative Waste row and positive Cotton row share it).
	PairID *id.ID `db:"pair_id" json:"pairId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Before reports whether m precedes o under the (Date, ID) ordering.
func (m *Movement) Before(o *Movement) bool {
	if !m.Date.Equal(o.Date) {
		return m.Date.Before(o.Date)
	}
	return m.ID < o.ID
}
