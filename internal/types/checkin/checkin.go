package checkin

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// MessageRef points at the chat-platform message a pending check-in card was
// posted as. Approval signals are keyed by it.
type MessageRef struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

func (r MessageRef) IsZero() bool {
	return r.ChannelID == "" && r.MessageID == ""
}

// Record is one submission attempt. Status is terminal once it leaves pending.
type Record struct {
	ID             int64      `json:"id" db:"id"`
	PlatformUserID string     `json:"platform_user_id" db:"platform_user_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	DayReported    int        `json:"day_reported" db:"day_reported"`
	Reflection     string     `json:"reflection" db:"reflection"`
	ProofURL       *string    `json:"proof_url,omitempty" db:"proof_url"`
	Status         Status     `json:"status" db:"status"`
	SimilarityFlag bool       `json:"similarity_flag" db:"similarity_flag"`
	Reason         *string    `json:"reason,omitempty" db:"reason"`
	Message        MessageRef `json:"message"`
}

var (
	// ErrInvalidInput covers a malformed day number or a too-short reflection.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound means the record or user a handler was asked about does not
	// exist. Spurious signals for unknown messages are expected; handlers
	// treat this as a no-op.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the record was no longer pending when a transition was
	// attempted. Always a silent idempotent no-op, never surfaced upstream.
	ErrConflict = errors.New("checkin already resolved")
)

// TooSoonError reports an active cooldown with the remaining wait.
type TooSoonError struct {
	Wait time.Duration
}

func (e *TooSoonError) Error() string {
	return fmt.Sprintf("too soon: wait %.1f more hours", e.Wait.Hours())
}
