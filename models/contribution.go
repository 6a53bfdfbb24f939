package models

import "time"

// Payment methods accepted for a contribution. COIN is the only method with a
// tracked transfer on the native rail; the rest are reconciled off-chain.
const (
	MethodCoin         = "COIN"
	MethodBankTransfer = "BANK_TRANSFER"
	MethodFawry        = "FAWRY"
	MethodPayMob       = "PAYMOB"
	MethodOther        = "OTHER"
)

// Escrow statuses of a contribution. PENDING until the payment is confirmed,
// HELD while counted toward the campaign goal, RELEASED or REFUNDED after
// settlement. RELEASED and REFUNDED are terminal.
const (
	StatusPending  = "PENDING"
	StatusHeld     = "HELD"
	StatusReleased = "RELEASED"
	StatusRefunded = "REFUNDED"
)

// ValidMethod reports whether m is one of the accepted payment methods.
func ValidMethod(m string) bool {
	switch m {
	case MethodCoin, MethodBankTransfer, MethodFawry, MethodPayMob, MethodOther:
		return true
	}
	return false
}

// Contribution is one pledge toward one campaign. Amount is in the smallest
// currency unit and never changes after creation; status only moves forward
// per the escrow state machine.
type Contribution struct {
	ID          uint64     `bson:"_id" json:"id"`
	CampaignID  uint64     `bson:"campaign_id" json:"campaign_id"`
	Backer      string     `bson:"backer" json:"backer"`
	Amount      uint64     `bson:"amount" json:"amount"`
	Method      string     `bson:"method" json:"method"`
	MethodLabel string     `bson:"method_label,omitempty" json:"method_label,omitempty"`
	Status      string     `bson:"status" json:"status"`
	TransferID  *uint64    `bson:"transfer_id,omitempty" json:"transfer_id,omitempty"`
	ReceiptURL  string     `bson:"receipt_url,omitempty" json:"receipt_url,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	ConfirmedAt *time.Time `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}
