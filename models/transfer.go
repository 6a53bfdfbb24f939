package models

import "time"

// Transfer statuses on the native-coin rail.
const (
	TransferPending   = "PENDING"
	TransferConfirmed = "CONFIRMED"
	TransferFailed    = "FAILED"
)

// Transfer records one native-coin value movement from a backer to the escrow
// account. Memo carries the campaign id for reconciliation. Once CONFIRMED or
// FAILED the record is immutable apart from the one-time fill of BlockRef at
// confirmation.
type Transfer struct {
	ID          uint64     `bson:"_id" json:"id"`
	From        string     `bson:"from" json:"from"`
	To          string     `bson:"to" json:"to"`
	Amount      uint64     `bson:"amount" json:"amount"`
	Memo        uint64     `bson:"memo" json:"memo"`
	BlockRef    *uint64    `bson:"block_ref,omitempty" json:"block_ref,omitempty"`
	Status      string     `bson:"status" json:"status"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	ConfirmedAt *time.Time `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
}
