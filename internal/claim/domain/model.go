// Package domain implements the claim settlement lifecycle: the claim
// entity, its closed state machine, and the transition methods that
// are the only way claim state and milestones change.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Claim is a reported loss tracked through settlement. Append-only:
// claims are never deleted, and every milestone timestamp is set
// exactly once by its transition (the dispute loop may repeat).
type Claim struct {
	ID       snowflake.ID  `gorm:"primaryKey"`
	Number   string        `gorm:"type:text;not null;uniqueIndex"`
	PolicyID snowflake.ID  `gorm:"index;not null"`
	AssetID  *snowflake.ID `gorm:"index"`

	ClaimType     string          `gorm:"type:text;not null"`
	LossDate      time.Time       `gorm:"not null"`
	EstimatedLoss decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Description   string          `gorm:"type:text"`

	// Settlement figures. The insurer's receipt overwrites the
	// estimates; liquidation records what was actually paid.
	Deductible       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Depreciation     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	NetIndemnity     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	LiquidatedAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	PaidAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`

	State State `gorm:"type:text;not null;default:'registered'"`

	RegisteredAt       time.Time  `gorm:"not null"`
	BrokerNotifiedAt   *time.Time `gorm:""`
	BrokerRespondedAt  *time.Time `gorm:""`
	InsurerSubmittedAt *time.Time `gorm:""`
	ReceiptReceivedAt  *time.Time `gorm:""`
	ReceiptSignedAt    *time.Time `gorm:""`
	LiquidationSentAt  *time.Time `gorm:""`
	LiquidationDueAt   *time.Time `gorm:""`
	LiquidatedAt       *time.Time `gorm:""`
	ClosedAt           *time.Time `gorm:""`
	RejectedAt         *time.Time `gorm:""`

	BrokerResponseOrigin string `gorm:"type:text"`
	ReceiptOrigin        string `gorm:"type:text"`
	ReceiptNumber        string `gorm:"type:text"`
	DisputeReason        string `gorm:"type:text"`
	DisputeResolution    string `gorm:"type:text"`
	RejectReason         string `gorm:"type:text"`
	VarianceReason       string `gorm:"type:text"`

	PaymentDate *time.Time `gorm:""`

	SignedConformance bool `gorm:"not null;default:false"`

	// DeadlineNotified keeps the deadline-exceeded alert from firing
	// on every scan.
	DeadlineNotified bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Claim) TableName() string { return "claims" }

// transition moves the claim to target or fails without touching it.
func (c *Claim) transition(attempted string, target State) error {
	if !c.State.canReach(target) {
		return &InvalidTransitionError{Attempted: attempted, Current: c.State}
	}
	c.State = target
	return nil
}

func (c *Claim) NotifyBroker(now time.Time) error {
	if err := c.transition("notify_broker", StateBrokerNotified); err != nil {
		return err
	}
	c.BrokerNotifiedAt = &now
	return nil
}

func (c *Claim) RecordBrokerResponse(origin string, now time.Time) error {
	if err := c.transition("record_broker_response", StateBrokerResponded); err != nil {
		return err
	}
	c.BrokerRespondedAt = &now
	c.BrokerResponseOrigin = origin
	return nil
}

func (c *Claim) SubmitToInsurer(now time.Time) error {
	if err := c.transition("submit_to_insurer", StateInsurerSubmitted); err != nil {
		return err
	}
	c.InsurerSubmittedAt = &now
	return nil
}

// ReceiptFigures are the insurer's stated settlement numbers. Nil
// fields leave the claim's estimates untouched.
type ReceiptFigures struct {
	NetIndemnity decimal.Decimal
	GrossLoss    *decimal.Decimal
	Deductible   *decimal.Decimal
	Depreciation *decimal.Decimal
}

func (c *Claim) RecordReceipt(origin string, figures ReceiptFigures, now time.Time) error {
	if err := c.transition("record_receipt", StateReceiptReceived); err != nil {
		return err
	}
	if c.ReceiptReceivedAt == nil {
		c.ReceiptReceivedAt = &now
	}
	c.ReceiptOrigin = origin
	c.NetIndemnity = figures.NetIndemnity
	if figures.GrossLoss != nil {
		c.EstimatedLoss = *figures.GrossLoss
	}
	if figures.Deductible != nil {
		c.Deductible = *figures.Deductible
	}
	if figures.Depreciation != nil {
		c.Depreciation = *figures.Depreciation
	}
	return nil
}

func (c *Claim) OpenDispute(reason string, now time.Time) error {
	if err := c.transition("open_dispute", StateInDispute); err != nil {
		return err
	}
	c.DisputeReason = reason
	c.DisputeResolution = ""
	return nil
}

func (c *Claim) ResolveDispute(resolution string, now time.Time) error {
	if c.State != StateInDispute {
		return &InvalidTransitionError{Attempted: "resolve_dispute", Current: c.State}
	}
	c.State = StateReceiptReceived
	c.DisputeResolution = resolution
	return nil
}

func (c *Claim) SignReceipt(now time.Time) error {
	if err := c.transition("sign_receipt", StateReceiptSigned); err != nil {
		return err
	}
	c.ReceiptSignedAt = &now
	c.SignedConformance = true
	return nil
}

// SendToLiquidation starts the payout deadline. due comes from the
// business calendar; the claim only stores it.
func (c *Claim) SendToLiquidation(now, due time.Time) error {
	if err := c.transition("send_to_liquidation", StatePendingLiquidation); err != nil {
		return err
	}
	c.LiquidationSentAt = &now
	c.LiquidationDueAt = &due
	return nil
}

// MarkDeadlineExceeded flags a pending liquidation past its due
// timestamp. The scan calls this; it is not an operator action.
func (c *Claim) MarkDeadlineExceeded(now time.Time) error {
	if c.State != StatePendingLiquidation {
		return &InvalidTransitionError{Attempted: "mark_deadline_exceeded", Current: c.State}
	}
	if c.LiquidationDueAt == nil || now.Before(*c.LiquidationDueAt) {
		return &InvalidTransitionError{Attempted: "mark_deadline_exceeded", Current: c.State}
	}
	c.State = StateDeadlineExceeded
	return nil
}

type LiquidationInfo struct {
	Amount         decimal.Decimal
	ReceiptNumber  string
	VarianceReason string
	PaymentDate    *time.Time
}

func (c *Claim) RegisterLiquidation(info LiquidationInfo, now time.Time) error {
	if err := c.transition("register_liquidation", StateLiquidated); err != nil {
		return err
	}
	c.LiquidatedAt = &now
	c.LiquidatedAmount = info.Amount
	c.PaidAmount = info.Amount
	c.ReceiptNumber = info.ReceiptNumber
	c.VarianceReason = info.VarianceReason
	if info.PaymentDate != nil {
		c.PaymentDate = info.PaymentDate
	} else {
		c.PaymentDate = &now
	}
	return nil
}

func (c *Claim) Close(now time.Time) error {
	if err := c.transition("close", StateClosed); err != nil {
		return err
	}
	c.ClosedAt = &now
	return nil
}

// Reject is reachable from every non-terminal state except liquidated,
// which must close instead.
func (c *Claim) Reject(reason string, now time.Time) error {
	if err := c.transition("reject", StateRejected); err != nil {
		return err
	}
	c.RejectedAt = &now
	c.RejectReason = reason
	return nil
}

// DeadlineExpired reports whether the liquidation deadline has passed
// while payout is still pending.
func (c *Claim) DeadlineExpired(now time.Time) bool {
	if c.State != StatePendingLiquidation && c.State != StateDeadlineExceeded {
		return false
	}
	return c.LiquidationDueAt != nil && !now.Before(*c.LiquidationDueAt)
}

// RequiresBrokerAlert reports a broker notification older than
// thresholdDays with no response.
func (c *Claim) RequiresBrokerAlert(now time.Time, thresholdDays int) bool {
	if c.State != StateBrokerNotified || c.BrokerNotifiedAt == nil {
		return false
	}
	return !now.Before(c.BrokerNotifiedAt.AddDate(0, 0, thresholdDays))
}

// RequiresInsurerResponseAlert reports a submission older than
// thresholdDays with no receipt.
func (c *Claim) RequiresInsurerResponseAlert(now time.Time, thresholdDays int) bool {
	if c.State != StateInsurerSubmitted || c.InsurerSubmittedAt == nil {
		return false
	}
	return !now.Before(c.InsurerSubmittedAt.AddDate(0, 0, thresholdDays))
}
